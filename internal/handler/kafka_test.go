package handler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shopbackend/internal/entities"
	mocks "shopbackend/internal/handler/mocks"
)

func TestKafkaHandler_HandlePaymentResult(t *testing.T) {
	testCases := []struct {
		name         string
		payload      string
		mockBehavior func(applier *mocks.MockPaymentApplier)
		wantErr      bool
	}{
		{
			name:    "valid result is applied",
			payload: `{"order_id": "order-1", "transaction_id": "tx-1", "status": "succeeded", "paid_at": 1756684800}`,
			mockBehavior: func(applier *mocks.MockPaymentApplier) {
				applier.EXPECT().
					ApplyPaymentResult(mock.Anything, entities.PaymentResult{
						OrderID:       "order-1",
						TransactionID: "tx-1",
						Status:        entities.PaymentStatusSucceeded,
						PaidAt:        time.Unix(1756684800, 0),
					}).
					Return(nil).Once()
			},
		},
		{
			name:         "malformed json",
			payload:      `{"order_id": `,
			mockBehavior: func(applier *mocks.MockPaymentApplier) {},
			wantErr:      true,
		},
		{
			name:         "missing transaction id",
			payload:      `{"order_id": "order-1", "status": "succeeded"}`,
			mockBehavior: func(applier *mocks.MockPaymentApplier) {},
			wantErr:      true,
		},
		{
			name:    "applier error surfaces",
			payload: `{"order_id": "ghost", "transaction_id": "tx-1", "status": "succeeded"}`,
			mockBehavior: func(applier *mocks.MockPaymentApplier) {
				applier.EXPECT().
					ApplyPaymentResult(mock.Anything, mock.Anything).
					Return(entities.ErrOrderNotFound).Once()
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			applier := mocks.NewMockPaymentApplier(t)
			tc.mockBehavior(applier)

			h := &kafkaHandler{
				logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
				validate: validator.New(),
				applier:  applier,
			}

			err := h.handlePaymentResult(context.Background(), kafka.Message{Value: []byte(tc.payload)})
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
