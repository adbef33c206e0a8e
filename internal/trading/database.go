package trading

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ksred/strike-api/internal/types"
	"gorm.io/gorm"
)

// ErrInsufficientFunds means the wallet balance cannot cover the stake.
var ErrInsufficientFunds = errors.New("insufficient funds")

// startingBalance seeds a wallet on first access.
const startingBalance = 10000

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

func (d *Database) GetOrderByOrderIDAndClientID(orderID, clientID string) (*types.Order, error) {
	var order types.Order
	if err := d.db.Where("order_id = ? AND client_id = ?", orderID, clientID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetOrCreateWallet returns the client's wallet, seeding a fresh one on
// first access.
func (d *Database) GetOrCreateWallet(clientID string) (*types.Wallet, error) {
	var wallet types.Wallet
	err := d.db.
		Where(types.Wallet{ClientID: clientID}).
		Attrs(types.Wallet{
			WalletID: uuid.New().String(),
			Balance:  startingBalance,
			Currency: "USD",
		}).
		FirstOrCreate(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// CreateOrderWithStake creates the order, debits the stake from the wallet
// and records the funding transaction in a single database transaction,
// together with the idempotency record. Demo orders skip all wallet work.
func (d *Database) CreateOrderWithStake(order *types.Order, idempotencyKey string) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if !order.IsDemo {
			result := tx.Model(&types.Wallet{}).
				Where("client_id = ? AND balance >= ?", order.ClientID, order.Amount).
				Update("balance", gorm.Expr("balance - ?", order.Amount))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: stake %.2f", ErrInsufficientFunds, order.Amount)
			}

			funding := types.Transaction{
				TransactionID: uuid.New().String(),
				ReferenceID:   order.OrderID,
				ClientID:      order.ClientID,
				Type:          "STAKE",
				Amount:        order.Amount,
				Status:        types.TxPending,
				CreatedAt:     time.Now(),
				UpdatedAt:     time.Now(),
			}
			if err := tx.Create(&funding).Error; err != nil {
				return err
			}
		}

		record := IdempotencyRecord{
			IdempotencyKey: idempotencyKey,
			ResourceID:     order.OrderID,
			ResourceType:   "order",
			ExpiresAt:      time.Now().Add(24 * time.Hour),
		}
		return tx.Create(&record).Error
	})
}

// GetIdempotencyRecord retrieves an idempotency record by key
func (d *Database) GetIdempotencyRecord(key string) (*IdempotencyRecord, error) {
	var record IdempotencyRecord
	if err := d.db.Where("idempotency_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &record, nil
		}
		return nil, err
	}
	return &record, nil
}
