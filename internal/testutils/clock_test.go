package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockWrapper_NowAdvances(t *testing.T) {
	mock := NewMockClock(t)
	clock := NewClockWrapper(mock)

	before := clock.Now()
	mock.Advance(time.Minute).MustWait(context.Background())
	assert.Equal(t, time.Minute, clock.Since(before))
}

func TestClockWrapper_TimerFiresOnAdvance(t *testing.T) {
	mock := NewMockClock(t)
	clock := NewClockWrapper(mock)

	timer := clock.NewTimer(30 * time.Second)

	mock.Advance(29 * time.Second).MustWait(context.Background())
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}

	mock.Advance(time.Second).MustWait(context.Background())
	select {
	case <-timer.C():
	default:
		t.Fatal("timer did not fire at its deadline")
	}
}

func TestClockWrapper_TimerStop(t *testing.T) {
	mock := NewMockClock(t)
	clock := NewClockWrapper(mock)

	timer := clock.NewTimer(time.Second)
	require.True(t, timer.Stop())

	mock.Advance(2 * time.Second).MustWait(context.Background())
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestClockWrapper_TickerDeliversEachPeriod(t *testing.T) {
	mock := NewMockClock(t)
	clock := NewClockWrapper(mock)

	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		mock.Advance(time.Second).MustWait(context.Background())
		select {
		case <-ticker.C():
		default:
			t.Fatalf("tick %d not delivered", i)
		}
	}
}
