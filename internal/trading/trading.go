package trading

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/strike-api/internal/auth"
	"github.com/ksred/strike-api/internal/marketdata"
	"github.com/ksred/strike-api/internal/metrics"
	"github.com/ksred/strike-api/internal/settlement"
	"github.com/ksred/strike-api/internal/types"
	"github.com/ksred/strike-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrInvalidOrder wraps intake validation failures.
var ErrInvalidOrder = errors.New("invalid order")

// Service handles option-order intake. It captures the reference price,
// commits the stake debit atomically with the order and arms the settlement
// timer.
type Service struct {
	db        *Database
	market    marketdata.Client
	scheduler *settlement.Scheduler
}

func NewService(gormDB *gorm.DB, market marketdata.Client, scheduler *settlement.Scheduler) *Service {
	return &Service{
		db:        NewDatabase(gormDB),
		market:    market,
		scheduler: scheduler,
	}
}

// CreateOrder creates a new option order with idempotency support. The
// reference price is captured from the live ticker at creation time and the
// stake is debited in the same transaction that persists the order.
func (s *Service) CreateOrder(order *types.Order, idempotencyKey string) error {
	// Check for existing idempotency record
	record, err := s.db.GetIdempotencyRecord(idempotencyKey)
	if err == nil && record != nil && record.ExpiresAt.After(time.Now()) {
		existingOrder, err := s.db.GetOrder(record.ResourceID)
		if err != nil {
			return err
		}
		if existingOrder == nil {
			return errors.New("order not found")
		}
		*order = *existingOrder
		return nil
	}

	if err := validateOrder(order); err != nil {
		return err
	}

	price, err := s.market.Ticker(order.Symbol)
	if err != nil {
		return fmt.Errorf("failed to capture reference price: %w", err)
	}

	order.OrderID = uuid.New().String()
	order.Status = types.StatusPending
	order.Price = price
	order.Profit = 0
	order.ClosePrice = 0
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	if err := s.db.CreateOrderWithStake(order, idempotencyKey); err != nil {
		return err
	}

	s.scheduler.Arm(order)
	metrics.OrdersCreatedTotal.WithLabelValues(order.Type).Inc()

	log.Info().
		Str("order_id", order.OrderID).
		Str("type", order.Type).
		Str("side", order.Side).
		Str("symbol", order.Symbol).
		Float64("amount", order.Amount).
		Time("closed_at", order.ClosedAt).
		Msg("order created")

	return nil
}

// validateOrder enforces the per-instrument field invariants: exactly the
// fields the instrument needs, a positive stake and a strictly-future
// expiry.
func validateOrder(order *types.Order) error {
	if order.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if order.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidOrder)
	}
	if !order.ClosedAt.After(time.Now()) {
		return fmt.Errorf("%w: expiry must be in the future", ErrInvalidOrder)
	}

	switch order.Type {
	case types.TypeRiseFall:
		return requireSide(order, types.SideRise, types.SideFall)
	case types.TypeHigherLower:
		if order.Barrier == 0 {
			return fmt.Errorf("%w: barrier is required", ErrInvalidOrder)
		}
		return requireSide(order, types.SideHigher, types.SideLower)
	case types.TypeTouchNoTouch:
		if order.Barrier == 0 {
			return fmt.Errorf("%w: barrier is required", ErrInvalidOrder)
		}
		return requireSide(order, types.SideTouch, types.SideNoTouch)
	case types.TypeCallPut:
		if order.StrikePrice == 0 {
			return fmt.Errorf("%w: strike_price is required", ErrInvalidOrder)
		}
		return requireSide(order, types.SideCall, types.SidePut)
	case types.TypeTurbo:
		if order.Barrier == 0 || order.PayoutPerPoint == 0 {
			return fmt.Errorf("%w: barrier and payout_per_point are required", ErrInvalidOrder)
		}
		if order.DurationType != types.DurationTime && order.DurationType != types.DurationTicks {
			return fmt.Errorf("%w: duration_type must be TIME or TICKS", ErrInvalidOrder)
		}
		return requireSide(order, types.SideUp, types.SideDown)
	default:
		return fmt.Errorf("%w: unknown instrument type %q", ErrInvalidOrder, order.Type)
	}
}

func requireSide(order *types.Order, sides ...string) error {
	for _, side := range sides {
		if order.Side == side {
			return nil
		}
	}
	return fmt.Errorf("%w: side %q is not valid for %s", ErrInvalidOrder, order.Side, order.Type)
}

// GetOrderByOrderIDAndClientID retrieves an order scoped to its owner.
func (s *Service) GetOrderByOrderIDAndClientID(orderID, clientID string) (*types.Order, error) {
	return s.db.GetOrderByOrderIDAndClientID(orderID, clientID)
}

// GetWallet returns the client's wallet, creating one on first access.
func (s *Service) GetWallet(clientID string) (*types.Wallet, error) {
	return s.db.GetOrCreateWallet(clientID)
}

// GinHandlers contains HTTP handlers for trading endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateOrderHandler handles POST requests to create new option orders.
// Requires a valid JWT token and idempotency key in headers.
func (h *GinHandlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}
		clientID := auth.GetClientID(claims)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		var order types.Order
		if err := c.ShouldBindJSON(&order); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		order.ClientID = clientID

		err := h.service.CreateOrder(&order, idempotencyKey)
		switch {
		case err == nil:
			response.Success(c, order)
		case errors.Is(err, ErrInvalidOrder):
			response.BadRequest(c, err.Error())
		case errors.Is(err, ErrInsufficientFunds):
			response.Conflict(c, err.Error())
		default:
			response.InternalError(c, err.Error())
		}
	}
}

// GetOrderStatusHandler handles GET requests to retrieve order status.
// Requires a valid JWT token; orders are scoped to the caller.
func (h *GinHandlers) GetOrderStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}
		clientID := auth.GetClientID(claims)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		orderID := c.Param("order_id")
		if orderID == "" {
			response.BadRequest(c, "Order ID is required")
			return
		}

		order, err := h.service.GetOrderByOrderIDAndClientID(orderID, clientID)
		if err != nil || order == nil {
			response.NotFound(c, "Order not found")
			return
		}

		response.Success(c, order)
	}
}

// GetWalletHandler handles GET requests for the caller's wallet balance.
func (h *GinHandlers) GetWalletHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString("clientID")
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		wallet, err := h.service.GetWallet(clientID)
		response.Handle(c, wallet, err)
	}
}
