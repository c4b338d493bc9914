package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipra-ai/shipra-backend/internal/models"
)

func TestMemoryStoreCreateAndGetOrder(t *testing.T) {
	store := NewMemoryStore()

	order, err := store.CreateOrder(&models.OrderRecord{
		PhoneNumber: "+1000",
		SessionID:   "sess-1",
		Details:     `{"item":"rice"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD00001", order.OrderID)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	got, err := store.GetOrder("ORD00001")
	require.NoError(t, err)
	assert.Equal(t, "+1000", got.PhoneNumber)

	_, err = store.GetOrder("ORD99999")
	assert.Error(t, err)
}

func TestMemoryStoreOrdersByPhone(t *testing.T) {
	store := NewMemoryStore()

	for i := 0; i < 3; i++ {
		_, err := store.CreateOrder(&models.OrderRecord{PhoneNumber: "+1000"})
		require.NoError(t, err)
	}
	_, err := store.CreateOrder(&models.OrderRecord{PhoneNumber: "+2000"})
	require.NoError(t, err)

	orders, err := store.GetOrdersByPhone("+1000")
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	all, err := store.GetAllOrders()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemoryStoreUpdateOrder(t *testing.T) {
	store := NewMemoryStore()

	order, err := store.CreateOrder(&models.OrderRecord{PhoneNumber: "+1000"})
	require.NoError(t, err)

	order.Status = models.OrderStatusSubmitted
	order.ERPDocName = "SO-0001"
	require.NoError(t, store.UpdateOrder(order))

	got, err := store.GetOrder(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSubmitted, got.Status)
	assert.Equal(t, "SO-0001", got.ERPDocName)

	assert.Error(t, store.UpdateOrder(&models.OrderRecord{OrderID: "ORD99999"}))
}

func TestMemoryStoreConcurrentCreates(t *testing.T) {
	store := NewMemoryStore()

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := store.CreateOrder(&models.OrderRecord{PhoneNumber: fmt.Sprintf("+1%03d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := store.GetAllOrders()
	require.NoError(t, err)
	assert.Len(t, all, n)

	// IDs are unique
	seen := make(map[string]bool)
	for _, order := range all {
		assert.False(t, seen[order.OrderID])
		seen[order.OrderID] = true
	}
}
