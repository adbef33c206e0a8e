package settlement

import (
	"context"
	"time"

	"github.com/ksred/strike-api/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Processor is the reconciliation sweep: it settles any pending order whose
// expiry passed without its timer firing (restart, lost handle, clock skew).
// It is the durability guarantee behind the per-order timers; an order is
// settled at worst one interval late.
type Processor struct {
	service  *Service
	interval time.Duration
}

func NewProcessor(service *Service, interval time.Duration) *Processor {
	return &Processor{
		service:  service,
		interval: interval,
	}
}

// Start rehydrates timers for open orders, then runs the sweep loop until
// the context is canceled.
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "settlement_sweep").Logger()
	logger.Info().Msg("starting settlement sweep")

	if err := p.rehydrate(); err != nil {
		logger.Error().Err(err).Msg("failed to rehydrate timers")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down settlement sweep")
			return
		case <-ticker.C:
			if err := p.sweep(); err != nil {
				logger.Error().Err(err).Msg("sweep pass failed")
			}
		}
	}
}

func (p *Processor) sweep() error {
	logger := log.With().Str("component", "settlement_sweep").Logger()

	orders, err := p.service.db.GetExpiredPending(time.Now())
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	logger.Info().Int("expired_count", len(orders)).Msg("processing expired pending orders")

	for _, order := range orders {
		if p.service.scheduler.Tracked(order.OrderID) {
			continue
		}

		metrics.SweepSettlementsTotal.Inc()
		if err := p.service.Settle(order.OrderID, order.Symbol); err != nil {
			logger.Error().
				Err(err).
				Str("order_id", order.OrderID).
				Msg("sweep settlement failed")
		}
	}
	return nil
}

// rehydrate re-arms a timer for every pending order that has not expired
// yet, restoring the pre-restart schedule.
func (p *Processor) rehydrate() error {
	orders, err := p.service.db.GetOpenPending(time.Now())
	if err != nil {
		return err
	}

	for i := range orders {
		p.service.scheduler.Arm(&orders[i])
	}

	if len(orders) > 0 {
		log.Info().
			Int("order_count", len(orders)).
			Str("component", "settlement_sweep").
			Msg("rehydrated settlement timers")
	}
	return nil
}
