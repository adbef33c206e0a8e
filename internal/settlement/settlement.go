package settlement

import (
	"errors"
	"time"

	"github.com/ksred/strike-api/internal/detector"
	"github.com/ksred/strike-api/internal/marketdata"
	"github.com/ksred/strike-api/internal/metrics"
	"github.com/ksred/strike-api/internal/notify"
	"github.com/ksred/strike-api/internal/outcome"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/strike-api/internal/types"
)

// Service owns the order lifecycle: it is the only component that moves an
// order from PENDING to a terminal status. Both the per-order timer and the
// reconciliation sweep enter through Settle.
type Service struct {
	db           *Database
	market       marketdata.Client
	detector     *detector.Detector
	rates        outcome.Rates
	cancelCutoff time.Duration
	scheduler    *Scheduler
	notifier     *notify.Notifier
	hub          *notify.Hub
}

func NewService(
	gormDB *gorm.DB,
	market marketdata.Client,
	rates outcome.Rates,
	cancelCutoff time.Duration,
	notifier *notify.Notifier,
	hub *notify.Hub,
) *Service {
	s := &Service{
		db:           NewDatabase(gormDB),
		market:       market,
		detector:     detector.New(market),
		rates:        rates,
		cancelCutoff: cancelCutoff,
		notifier:     notifier,
		hub:          hub,
	}
	s.scheduler = NewScheduler(func(orderID, symbol string) {
		if err := s.Settle(orderID, symbol); err != nil {
			log.Error().Err(err).Str("order_id", orderID).Msg("timer settlement failed")
		}
	})
	return s
}

// Scheduler exposes the timer component so intake can arm expiries.
func (s *Service) Scheduler() *Scheduler {
	return s.scheduler
}

// Settle drives one order to a terminal status. It is safe to call
// concurrently for the same order: whichever entry commits first wins and
// the other observes the terminal status and no-ops. A failed market-data
// fetch leaves the order untouched for the next sweep pass.
func (s *Service) Settle(orderID, symbol string) error {
	timer := time.Now()
	defer func() {
		metrics.SettlementDuration.Observe(time.Since(timer).Seconds())
	}()

	logger := log.With().
		Str("order_id", orderID).
		Str("service", "settlement").
		Logger()

	order, err := s.db.GetOrder(orderID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load order")
		return err
	}
	if order == nil || order.Terminal() {
		logger.Debug().Msg("order missing or already terminal, nothing to do")
		return nil
	}

	closePrice, err := s.market.Ticker(order.Symbol)
	if err != nil {
		logger.Warn().Err(err).Msg("ticker unavailable, leaving order for the next sweep")
		return nil
	}

	var flagged bool
	switch order.Type {
	case types.TypeTouchNoTouch:
		flagged = s.detector.Touched(order.Symbol, order.Barrier, order.CreatedAt, order.ClosedAt)
	case types.TypeTurbo:
		flagged = s.detector.Breached(order.Symbol, order.Side, order.Barrier, order.CreatedAt, order.ClosedAt)
	}

	verdict := outcome.Evaluate(order, closePrice, flagged, s.rates)

	settled, err := s.db.SettleOrder(orderID, Update{
		Status:     verdict.Status,
		ClosePrice: closePrice,
		Profit:     verdict.Profit,
	})
	if errors.Is(err, ErrAlreadySettled) {
		logger.Debug().Msg("lost settlement race, order already terminal")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to commit settlement")
		return err
	}

	metrics.OrdersSettledTotal.WithLabelValues(settled.Type, settled.Status).Inc()
	logger.Info().
		Str("status", settled.Status).
		Float64("close_price", settled.ClosePrice).
		Float64("profit", settled.Profit).
		Msg("order settled")

	// The financial commit is done; everything past here is best-effort.
	go func() {
		s.hub.Broadcast(notify.OrderEvent{Event: "order_settled", Order: settled})
		s.notifier.OrderSettled(settled)
	}()

	return nil
}
