package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/shipra-ai/shipra-backend/internal/models"
)

// DatabaseStore persists order records in PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed order store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) CreateOrder(order *models.OrderRecord) (*models.OrderRecord, error) {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	// OrderID is assigned after insert so it follows the row's primary key
	if err := d.db.Create(order).Error; err != nil {
		return nil, err
	}
	order.OrderID = fmt.Sprintf("ORD%05d", order.ID)
	if err := d.db.Model(order).Update("order_id", order.OrderID).Error; err != nil {
		return nil, err
	}

	return order, nil
}

func (d *DatabaseStore) GetOrder(orderID string) (*models.OrderRecord, error) {
	var order models.OrderRecord
	if err := d.db.Where("order_id = ?", orderID).First(&order).Error; err != nil {
		return nil, fmt.Errorf("order not found")
	}
	return &order, nil
}

func (d *DatabaseStore) GetOrdersByPhone(phone string) ([]*models.OrderRecord, error) {
	var orders []*models.OrderRecord
	if err := d.db.Where("phone_number = ?", phone).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DatabaseStore) GetAllOrders() ([]*models.OrderRecord, error) {
	var orders []*models.OrderRecord
	if err := d.db.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DatabaseStore) UpdateOrder(order *models.OrderRecord) error {
	return d.db.Save(order).Error
}
