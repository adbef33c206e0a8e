package settlement

import (
	"testing"
	"time"

	"github.com/ksred/strike-api/internal/types"
)

func TestScheduler_PastExpiryFiresImmediately(t *testing.T) {
	fired := make(chan string, 1)
	s := NewScheduler(func(orderID, symbol string) {
		fired <- orderID
	})

	s.Arm(&types.Order{OrderID: "order-1", Symbol: "BTCUSDT", ClosedAt: time.Now().Add(-time.Minute)})

	select {
	case got := <-fired:
		if got != "order-1" {
			t.Errorf("settled order = %s, want order-1", got)
		}
	case <-time.After(time.Second):
		t.Fatal("past-expiry order was never settled")
	}
	if s.Tracked("order-1") {
		t.Error("immediate settlement must not leave a timer behind")
	}
}

func TestScheduler_FutureTimerFires(t *testing.T) {
	fired := make(chan string, 1)
	s := NewScheduler(func(orderID, symbol string) {
		fired <- orderID
	})

	s.Arm(&types.Order{OrderID: "order-1", Symbol: "BTCUSDT", ClosedAt: time.Now().Add(30 * time.Millisecond)})
	if !s.Tracked("order-1") {
		t.Error("armed order should be tracked until its timer fires")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestScheduler_CancelStopsTimer(t *testing.T) {
	fired := make(chan string, 1)
	s := NewScheduler(func(orderID, symbol string) {
		fired <- orderID
	})

	s.Arm(&types.Order{OrderID: "order-1", Symbol: "BTCUSDT", ClosedAt: time.Now().Add(50 * time.Millisecond)})
	s.Cancel("order-1")

	select {
	case <-fired:
		t.Fatal("canceled timer still fired")
	case <-time.After(150 * time.Millisecond):
	}
	if s.Tracked("order-1") {
		t.Error("canceled order must not stay tracked")
	}
}

func TestScheduler_ReArmIsNoOp(t *testing.T) {
	fired := make(chan string, 2)
	s := NewScheduler(func(orderID, symbol string) {
		fired <- orderID
	})

	order := &types.Order{OrderID: "order-1", Symbol: "BTCUSDT", ClosedAt: time.Now().Add(30 * time.Millisecond)}
	s.Arm(order)
	s.Arm(order)

	<-fired
	select {
	case <-fired:
		t.Fatal("re-arming produced a second settlement")
	case <-time.After(100 * time.Millisecond):
	}
}
