package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	baseURL = "http://localhost:8080/orders"
	userID  = "load-test-user"
)

var placedIDs struct {
	sync.Mutex
	ids []string
}

func main() {
	for {
		var wg sync.WaitGroup
		n := rand.Intn(10)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				doRequest()
			}()
		}
		wg.Wait()
		time.Sleep(20 * time.Millisecond)
	}
}

func doRequest() {
	if rand.Intn(3) == 0 {
		placeOrder()
		return
	}
	getOrder()
}

func placeOrder() {
	body := map[string]any{
		"items": []map[string]any{
			{"product_id": fmt.Sprintf("p-%d", rand.Intn(20)+1), "quantity": rand.Intn(3) + 1},
		},
		"shipping_address": map[string]string{
			"street":   fmt.Sprintf("%d Main St", rand.Intn(100)+1),
			"city":     "Springfield",
			"state":    "IL",
			"zip_code": "62701",
			"country":  "US",
		},
		"payment_method": "credit_card",
	}
	data, _ := json.Marshal(body)

	req, _ := http.NewRequest(http.MethodPost, baseURL, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("place failed:", err)
		return
	}
	defer resp.Body.Close()
	fmt.Println("POST", baseURL, "->", resp.Status)

	if resp.StatusCode != http.StatusCreated {
		return
	}
	var order struct {
		ID string `json:"id"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(raw, &order) == nil && order.ID != "" {
		placedIDs.Lock()
		placedIDs.ids = append(placedIDs.ids, order.ID)
		placedIDs.Unlock()
	}
}

func getOrder() {
	placedIDs.Lock()
	var id string
	if len(placedIDs.ids) > 0 {
		id = placedIDs.ids[rand.Intn(len(placedIDs.ids))]
	}
	placedIDs.Unlock()

	if id == "" || rand.Intn(5) == 0 {
		id = "does-not-exist"
	}

	url := baseURL + "/" + id
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("X-User-ID", userID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("get failed:", err)
		return
	}
	resp.Body.Close()
	fmt.Println("GET", url, "->", resp.Status)
}
