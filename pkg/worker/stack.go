package worker

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
)

// currentGoroutineID parses the numeric goroutine id out of the header
// line produced by runtime.Stack ("goroutine 42 [running]:"). There is
// no supported API for this; the textual format has been stable across
// Go releases and is only used for best-effort diagnostics.
func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := buf[:n]

	header = bytes.TrimPrefix(header, []byte("goroutine "))
	if i := bytes.IndexByte(header, ' '); i > 0 {
		if id, err := strconv.ParseInt(string(header[:i]), 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// stackByGoroutineID captures the stacks of all goroutines and returns
// the block belonging to the given id, or "" if that goroutine no
// longer exists. The capture is a point-in-time snapshot and may race
// with concurrent execution.
func stackByGoroutineID(id int64) string {
	if id == 0 {
		return ""
	}

	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, len(buf)*2)
	}

	prefix := []byte(fmt.Sprintf("goroutine %d ", id))
	for _, block := range bytes.Split(buf, []byte("\n\n")) {
		if bytes.HasPrefix(block, prefix) {
			return string(block)
		}
	}
	return ""
}
