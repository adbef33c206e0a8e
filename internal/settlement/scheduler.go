package settlement

import (
	"sync"
	"time"

	"github.com/ksred/strike-api/internal/types"
)

// Scheduler owns one single-shot timer per open order, keyed by order id.
// It is injected where needed rather than living as package state so the
// sweep can rehydrate it after a restart.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	settle func(orderID, symbol string)
}

func NewScheduler(settle func(orderID, symbol string)) *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		settle: settle,
	}
}

// Arm schedules settlement at the order's expiry. An expiry already in the
// past settles immediately instead of scheduling. Arming an already-tracked
// order is a no-op.
func (s *Scheduler) Arm(order *types.Order) {
	orderID, symbol := order.OrderID, order.Symbol

	delay := time.Until(order.ClosedAt)
	if delay <= 0 {
		go s.settle(orderID, symbol)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timers[orderID]; exists {
		return
	}
	s.timers[orderID] = time.AfterFunc(delay, func() {
		s.settle(orderID, symbol)
		s.release(orderID)
	})
}

// Cancel stops and discards the order's timer, if one is live.
func (s *Scheduler) Cancel(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[orderID]; ok {
		t.Stop()
		delete(s.timers, orderID)
	}
}

// Tracked reports whether a live timer exists for the order. The sweep skips
// tracked orders so a timer about to fire is not raced needlessly.
func (s *Scheduler) Tracked(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[orderID]
	return ok
}

func (s *Scheduler) release(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, orderID)
}
