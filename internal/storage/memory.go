package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/shipra-ai/shipra-backend/internal/models"
)

// MemoryStore holds order records in memory, for tests and local development
type MemoryStore struct {
	orders map[string]*models.OrderRecord

	orderMu sync.RWMutex

	orderCounter int
}

// NewMemoryStore creates a new in-memory order store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*models.OrderRecord),
	}
}

func (m *MemoryStore) CreateOrder(order *models.OrderRecord) (*models.OrderRecord, error) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	m.orderCounter++
	order.OrderID = fmt.Sprintf("ORD%05d", m.orderCounter)
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	m.orders[order.OrderID] = order
	return order, nil
}

func (m *MemoryStore) GetOrder(orderID string) (*models.OrderRecord, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	order, exists := m.orders[orderID]
	if !exists {
		return nil, fmt.Errorf("order not found")
	}
	return order, nil
}

func (m *MemoryStore) GetOrdersByPhone(phone string) ([]*models.OrderRecord, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	var orders []*models.OrderRecord
	for _, order := range m.orders {
		if order.PhoneNumber == phone {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (m *MemoryStore) GetAllOrders() ([]*models.OrderRecord, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	orders := make([]*models.OrderRecord, 0, len(m.orders))
	for _, order := range m.orders {
		orders = append(orders, order)
	}
	return orders, nil
}

func (m *MemoryStore) UpdateOrder(order *models.OrderRecord) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if _, exists := m.orders[order.OrderID]; !exists {
		return fmt.Errorf("order not found")
	}

	order.UpdatedAt = time.Now()
	m.orders[order.OrderID] = order
	return nil
}
