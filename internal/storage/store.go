package storage

import (
	"github.com/shipra-ai/shipra-backend/internal/models"
)

// OrderStore defines the interface for order record storage
type OrderStore interface {
	CreateOrder(order *models.OrderRecord) (*models.OrderRecord, error)
	GetOrder(orderID string) (*models.OrderRecord, error)
	GetOrdersByPhone(phone string) ([]*models.OrderRecord, error)
	GetAllOrders() ([]*models.OrderRecord, error)
	UpdateOrder(order *models.OrderRecord) error
}
