package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbackend/internal/entities"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		from entities.OrderStatus
		to   entities.OrderStatus
		want bool
	}{
		{entities.StatusPending, entities.StatusProcessing, true},
		{entities.StatusPending, entities.StatusCancelled, true},
		{entities.StatusPending, entities.StatusShipped, false},
		{entities.StatusPending, entities.StatusDelivered, false},

		{entities.StatusProcessing, entities.StatusShipped, true},
		{entities.StatusProcessing, entities.StatusCancelled, true},
		{entities.StatusProcessing, entities.StatusPending, false},

		{entities.StatusShipped, entities.StatusDelivered, true},
		{entities.StatusShipped, entities.StatusCancelled, false},

		{entities.StatusDelivered, entities.StatusRefunded, true},
		{entities.StatusDelivered, entities.StatusPending, false},
		{entities.StatusDelivered, entities.StatusShipped, false},

		{entities.StatusCancelled, entities.StatusPending, false},
		{entities.StatusCancelled, entities.StatusProcessing, false},
		{entities.StatusRefunded, entities.StatusPending, false},
		{entities.StatusRefunded, entities.StatusDelivered, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range []entities.OrderStatus{
		entities.StatusPending,
		entities.StatusProcessing,
		entities.StatusShipped,
		entities.StatusDelivered,
		entities.StatusCancelled,
		entities.StatusRefunded,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, entities.OrderStatus("limbo").Valid())
	assert.False(t, entities.OrderStatus("").Valid())
}

func TestOrderStatus_Cancellable(t *testing.T) {
	assert.True(t, entities.StatusPending.Cancellable())
	assert.True(t, entities.StatusProcessing.Cancellable())
	assert.False(t, entities.StatusShipped.Cancellable())
	assert.False(t, entities.StatusDelivered.Cancellable())
	assert.False(t, entities.StatusCancelled.Cancellable())
	assert.False(t, entities.StatusRefunded.Cancellable())
}

func TestOrder_MarshalUnmarshal(t *testing.T) {
	order := entities.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: entities.StatusPending,
		Items: []entities.OrderItem{
			{ProductID: "p-1", Name: "widget", Quantity: 2},
		},
	}

	data, err := order.Marshal()
	require.NoError(t, err)

	var got entities.Order
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, order, got)

	var broken entities.Order
	assert.ErrorIs(t, broken.Unmarshal([]byte("not gob")), entities.ErrInvalidOrder)
}
