package settlement

import (
	"testing"
	"time"

	"github.com/ksred/strike-api/internal/types"
)

func TestSweep_SettlesExpiredPendingOrders(t *testing.T) {
	svc, db := newTestService(t, &fakeMarket{price: 20001})
	seedWallet(t, db, "client-1", 900)
	order := &types.Order{
		ClientID: "client-1",
		Symbol:   "BTCUSDT",
		Type:     types.TypeRiseFall,
		Side:     types.SideRise,
		Amount:   100,
		Price:    20000,
		ClosedAt: time.Now().Add(-time.Minute),
	}
	seedOrder(t, db, order)

	p := NewProcessor(svc, time.Minute)
	if err := p.sweep(); err != nil {
		t.Fatalf("sweep() error = %v", err)
	}

	if loadOrder(t, db, order.OrderID).Status != types.StatusWin {
		t.Error("sweep did not settle the expired order")
	}
}

func TestSweep_SkipsOrdersWithLiveTimers(t *testing.T) {
	svc, db := newTestService(t, &fakeMarket{price: 20001})
	seedWallet(t, db, "client-1", 900)
	order := &types.Order{
		ClientID: "client-1",
		Symbol:   "BTCUSDT",
		Type:     types.TypeRiseFall,
		Side:     types.SideRise,
		Amount:   100,
		Price:    20000,
		ClosedAt: time.Now().Add(-time.Minute),
	}
	seedOrder(t, db, order)

	// Pretend a timer is about to fire for this order.
	svc.scheduler.mu.Lock()
	svc.scheduler.timers[order.OrderID] = time.NewTimer(time.Hour)
	svc.scheduler.mu.Unlock()
	defer svc.scheduler.Cancel(order.OrderID)

	p := NewProcessor(svc, time.Minute)
	if err := p.sweep(); err != nil {
		t.Fatalf("sweep() error = %v", err)
	}

	if loadOrder(t, db, order.OrderID).Status != types.StatusPending {
		t.Error("sweep must leave tracked orders to their timers")
	}
}

func TestRehydrate_ArmsTimersForOpenOrders(t *testing.T) {
	svc, db := newTestService(t, &fakeMarket{price: 20001})
	seedWallet(t, db, "client-1", 900)
	order := &types.Order{
		ClientID: "client-1",
		Symbol:   "BTCUSDT",
		Type:     types.TypeRiseFall,
		Side:     types.SideRise,
		Amount:   100,
		Price:    20000,
		ClosedAt: time.Now().Add(time.Hour),
	}
	seedOrder(t, db, order)

	p := NewProcessor(svc, time.Minute)
	if err := p.rehydrate(); err != nil {
		t.Fatalf("rehydrate() error = %v", err)
	}

	if !svc.scheduler.Tracked(order.OrderID) {
		t.Error("open pending order was not re-armed")
	}
}
