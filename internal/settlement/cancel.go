package settlement

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/strike-api/internal/metrics"
	"github.com/ksred/strike-api/internal/notify"
	"github.com/ksred/strike-api/internal/types"
	"github.com/ksred/strike-api/pkg/response"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyProcessed   = errors.New("order already processed")
	ErrTooCloseToExpiry   = errors.New("order too close to expiry to cancel")
	ErrTicksNotCancelable = errors.New("tick-duration orders cannot be canceled")
	ErrPriceUnavailable   = errors.New("current price unavailable")
	ErrOrderNotFound      = errors.New("order not found")
)

// CancelOrder exits a pending order early with a partial refund. percentage
// is the forfeited share of the stake; zero means a full refund. The refund
// never goes below zero. Canceling a terminal order reports "already
// processed" rather than failing.
func (s *Service) CancelOrder(orderID, clientID string, percentage float64) (*types.Order, error) {
	logger := log.With().
		Str("order_id", orderID).
		Str("service", "settlement").
		Logger()

	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.ClientID != clientID {
		return nil, ErrOrderNotFound
	}
	if order.Terminal() {
		return nil, ErrAlreadyProcessed
	}

	switch order.Type {
	case types.TypeTurbo:
		if order.DurationType == types.DurationTicks {
			return nil, ErrTicksNotCancelable
		}
		if time.Until(order.ClosedAt) < s.cancelCutoff {
			return nil, ErrTooCloseToExpiry
		}
	case types.TypeCallPut:
		if time.Until(order.ClosedAt) < s.cancelCutoff {
			return nil, ErrTooCloseToExpiry
		}
	}

	currentPrice, err := s.market.Ticker(order.Symbol)
	if err != nil {
		logger.Warn().Err(err).Msg("ticker unavailable, refusing cancellation")
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	refund := order.Amount * (1 - math.Abs(percentage)/100)
	if refund < 0 {
		refund = 0
	}

	canceled, err := s.db.CancelOrder(orderID, currentPrice, refund)
	if errors.Is(err, ErrAlreadySettled) {
		return nil, ErrAlreadyProcessed
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to commit cancellation")
		return nil, err
	}

	s.scheduler.Cancel(orderID)

	metrics.OrdersCanceledTotal.WithLabelValues(canceled.Type).Inc()
	logger.Info().
		Float64("refund", refund).
		Float64("close_price", currentPrice).
		Msg("order canceled")

	go func() {
		s.hub.Broadcast(notify.OrderEvent{Event: "order_canceled", Order: canceled})
		s.notifier.OrderCanceled(canceled, refund)
	}()

	return canceled, nil
}

// GinHandlers contains HTTP handlers for settlement endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CancelOrderHandler handles POST requests to cancel a pending order.
// Requires a valid JWT token; the order must belong to the caller.
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString("clientID")
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		orderID := c.Param("order_id")

		var request struct {
			Percentage float64 `json:"percentage"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				response.BadRequest(c, err.Error())
				return
			}
		}

		order, err := h.service.CancelOrder(orderID, clientID, request.Percentage)
		switch {
		case err == nil:
			response.Success(c, order)
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(c, "Order not found")
		case errors.Is(err, ErrAlreadyProcessed):
			response.Conflict(c, err.Error())
		case errors.Is(err, ErrTooCloseToExpiry),
			errors.Is(err, ErrTicksNotCancelable),
			errors.Is(err, ErrPriceUnavailable):
			response.BadRequest(c, err.Error())
		default:
			response.Handle(c, nil, err)
		}
	}
}
