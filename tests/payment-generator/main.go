package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

type PaymentResult struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	PaidAt        int64  `json:"paid_at,omitempty"`
}

func randomString(n int) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyz0123456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// generateResult fakes a payment provider callback. Most results succeed,
// some fail, and some reference orders that do not exist to exercise the DLQ.
func generateResult() PaymentResult {
	result := PaymentResult{
		OrderID:       fmt.Sprintf("%s-%s-%s-%s-%s", randomString(8), randomString(4), randomString(4), randomString(4), randomString(12)),
		TransactionID: "txn_" + randomString(16),
		Status:        "succeeded",
		PaidAt:        time.Now().Unix(),
	}
	if rand.Intn(5) == 0 {
		result.Status = "failed"
		result.PaidAt = 0
	}
	return result
}

func main() {
	addr := kafka.TCP("localhost:9092")

	writer := &kafka.Writer{
		Addr:  addr,
		Topic: "payment-results",
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	ticker := time.NewTicker(2 * time.Second)
	for {
		select {
		case <-ticker.C:
			result := generateResult()
			data, _ := json.Marshal(result)
			writer.WriteMessages(context.Background(), kafka.Message{
				Key:   []byte(result.OrderID),
				Value: data,
			})
			log.Println("payment result generated", result.OrderID, result.Status)
		case <-ctx.Done():
			return
		}
	}
}
