package settlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/ksred/strike-api/internal/types"
	"gorm.io/gorm"
)

var (
	// ErrAlreadySettled means another path won the terminal transition race.
	ErrAlreadySettled = errors.New("order already settled")
	// ErrOrderVanished means the order disappeared between update and re-read,
	// which is a data-integrity failure and aborts the whole transaction.
	ErrOrderVanished = errors.New("order not found after update")
)

// Update is the terminal snapshot applied to an order at settlement.
type Update struct {
	Status     string
	ClosePrice float64
	Profit     float64
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetOrder(orderID string) (*types.Order, error) {
	var order types.Order
	if err := d.db.Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// SettleOrder applies the terminal update, completes the funding transaction
// and credits the wallet as a single transaction: either every row is
// updated or none are. The status-guarded update is the compare-and-set that
// makes concurrent timer and sweep entries safe; the loser gets
// ErrAlreadySettled.
func (d *Database) SettleOrder(orderID string, update Update) (*types.Order, error) {
	var settled types.Order

	err := d.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&types.Order{}).
			Where("order_id = ? AND status = ?", orderID, types.StatusPending).
			Updates(map[string]interface{}{
				"status":      update.Status,
				"close_price": update.ClosePrice,
				"profit":      update.Profit,
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		if err := tx.Where("order_id = ?", orderID).First(&settled).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderVanished
			}
			return err
		}

		// Demo orders never touch real funds.
		if settled.IsDemo {
			return nil
		}

		result = tx.Model(&types.Transaction{}).
			Where("reference_id = ? AND status = ?", orderID, types.TxPending).
			Updates(map[string]interface{}{
				"status":     types.TxCompleted,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}

		var credit float64
		switch settled.Status {
		case types.StatusWin:
			credit = settled.Amount + settled.Profit
		case types.StatusDraw:
			credit = settled.Amount
		default:
			// LOSS: the stake was removed at creation, nothing moves now.
			return nil
		}

		result = tx.Model(&types.Wallet{}).
			Where("client_id = ?", settled.ClientID).
			Update("balance", gorm.Expr("balance + ?", credit))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("wallet not found for client %s", settled.ClientID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &settled, nil
}

// CancelOrder moves a pending order to CANCELED, deletes its funding
// transaction and credits the refund, atomically. The same status guard as
// SettleOrder makes cancellation and settlement mutually exclusive.
func (d *Database) CancelOrder(orderID string, closePrice, refund float64) (*types.Order, error) {
	var canceled types.Order

	err := d.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&types.Order{}).
			Where("order_id = ? AND status = ?", orderID, types.StatusPending).
			Updates(map[string]interface{}{
				"status":      types.StatusCanceled,
				"close_price": closePrice,
				"profit":      0,
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		if err := tx.Where("order_id = ?", orderID).First(&canceled).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderVanished
			}
			return err
		}

		if canceled.IsDemo {
			return nil
		}

		if err := tx.Where("reference_id = ?", orderID).Delete(&types.Transaction{}).Error; err != nil {
			return err
		}

		if refund <= 0 {
			return nil
		}

		result = tx.Model(&types.Wallet{}).
			Where("client_id = ?", canceled.ClientID).
			Update("balance", gorm.Expr("balance + ?", refund))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("wallet not found for client %s", canceled.ClientID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &canceled, nil
}

// GetExpiredPending returns orders whose expiry has passed without a
// terminal transition.
func (d *Database) GetExpiredPending(now time.Time) ([]types.Order, error) {
	var orders []types.Order
	err := d.db.
		Where("status = ? AND closed_at <= ?", types.StatusPending, now).
		Order("closed_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOpenPending returns pending orders that have not yet expired, used to
// rehydrate timers after a restart.
func (d *Database) GetOpenPending(now time.Time) ([]types.Order, error) {
	var orders []types.Order
	err := d.db.
		Where("status = ? AND closed_at > ?", types.StatusPending, now).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
