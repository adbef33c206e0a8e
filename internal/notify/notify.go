package notify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/strike-api/internal/types"
	"github.com/ksred/strike-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Mailer delivers settlement emails. Implementations are fire-and-forget;
// delivery failures are logged by the caller and never retried.
type Mailer interface {
	Send(clientID, subject, body string) error
}

// LogMailer writes outbound mail to the log. It stands in wherever no SMTP
// relay is configured.
type LogMailer struct{}

func (LogMailer) Send(clientID, subject, body string) error {
	log.Info().
		Str("client_id", clientID).
		Str("subject", subject).
		Msg("email dispatched")
	return nil
}

// Notifier records in-app notifications and sends email for terminal orders.
// It runs strictly after the financial commit; its failures never roll
// anything back.
type Notifier struct {
	db     *gorm.DB
	mailer Mailer
}

func NewNotifier(db *gorm.DB, mailer Mailer) *Notifier {
	return &Notifier{
		db:     db,
		mailer: mailer,
	}
}

// OrderSettled notifies the owning client that their order reached a normal
// terminal status.
func (n *Notifier) OrderSettled(order *types.Order) {
	title := fmt.Sprintf("Order %s: %s", order.Symbol, order.Status)

	var message string
	switch order.Status {
	case types.StatusWin:
		message = fmt.Sprintf("Your %s order on %s won. Profit: %.2f", order.Type, order.Symbol, order.Profit)
	case types.StatusDraw:
		message = fmt.Sprintf("Your %s order on %s closed at a draw. Stake returned.", order.Type, order.Symbol)
	default:
		message = fmt.Sprintf("Your %s order on %s lost at close price %.2f", order.Type, order.Symbol, order.ClosePrice)
	}

	n.deliver(order.ClientID, title, message)
}

// OrderCanceled notifies the owning client about an early exit.
func (n *Notifier) OrderCanceled(order *types.Order, refund float64) {
	title := fmt.Sprintf("Order %s: canceled", order.Symbol)
	message := fmt.Sprintf("Your %s order on %s was canceled. Refund: %.2f", order.Type, order.Symbol, refund)
	n.deliver(order.ClientID, title, message)
}

func (n *Notifier) deliver(clientID, title, message string) {
	notification := types.Notification{
		NotificationID: uuid.New().String(),
		ClientID:       clientID,
		Title:          title,
		Message:        message,
		Read:           false,
		CreatedAt:      time.Now(),
	}
	if err := n.db.Create(&notification).Error; err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("failed to store notification")
	}

	if err := n.mailer.Send(clientID, title, message); err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("failed to send notification email")
	}
}

// GetNotifications returns the most recent notifications for a client.
func (n *Notifier) GetNotifications(clientID string, limit int) ([]types.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	var notifications []types.Notification
	err := n.db.
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// GetNotificationsHandler handles GET requests for the caller's most recent
// notifications. Accepts an optional limit query parameter.
func (n *Notifier) GetNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString("clientID")
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		notifications, err := n.GetNotifications(clientID, limit)
		response.Handle(c, notifications, err)
	}
}
