package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"go-market/internal/identity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	baseURL   = flag.String("url", "http://localhost:8080", "server base url")
	pairCount = flag.Int("pairs", 100, "seller/buyer pairs")
	msgCount  = flag.Int("messages", 20, "messages per buyer")
)

type listingResponse struct {
	ID int64 `json:"id"`
}

type client struct {
	token string
	http  *http.Client
}

var failures atomic.Int64

func main() {
	flag.Parse()
	log := zap.Must(zap.NewDevelopment()).Sugar()
	defer func() { _ = log.Sync() }()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	issuer := identity.NewService(secret, os.Getenv("JWT_ISSUER"))

	log.Infof("starting load test: %d pairs, %d messages each", *pairCount, *msgCount)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < *pairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			if err := runPair(issuer, pairID); err != nil {
				failures.Add(1)
				log.Warnw("pair failed", "pair", pairID, "error", err)
			}
		}(i)
	}
	wg.Wait()

	log.Infow("load test complete", "elapsed", time.Since(start), "failed_pairs", failures.Load())
}

func runPair(issuer *identity.Service, pairID int) error {
	seller, err := newClient(issuer, fmt.Sprintf("lt_%d_seller", pairID))
	if err != nil {
		return err
	}
	buyer, err := newClient(issuer, fmt.Sprintf("lt_%d_buyer", pairID))
	if err != nil {
		return err
	}

	// Scatter listings around Manhattan.
	lat := 40.7128 + (rand.Float64()-0.5)*0.2
	lng := -74.0060 + (rand.Float64()-0.5)*0.2

	var created listingResponse
	if err := seller.do(http.MethodPost, "/api/listings", map[string]any{
		"title":       fmt.Sprintf("Load test bike %d", pairID),
		"description": "generated",
		"price":       50 + rand.Float64()*200,
		"latitude":    lat,
		"longitude":   lng,
	}, http.StatusCreated, &created); err != nil {
		return fmt.Errorf("create listing: %w", err)
	}

	if err := buyer.do(http.MethodGet, "/api/listings?text=bike&min_price=10&max_price=500&lat=40.7128&lng=-74.0060&radius=25", nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := buyer.do(http.MethodPost, "/api/favorites/toggle", map[string]any{"listing_id": created.ID}, http.StatusOK, nil); err != nil {
		return fmt.Errorf("toggle favorite: %w", err)
	}

	for i := 0; i < *msgCount; i++ {
		if err := buyer.do(http.MethodPost, "/api/messages", map[string]any{
			"listing_id": created.ID,
			"content":    fmt.Sprintf("load test message %d", i),
		}, http.StatusCreated, nil); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := seller.do(http.MethodGet, "/api/conversations", nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("conversations: %w", err)
	}
	if err := seller.do(http.MethodPut, fmt.Sprintf("/api/listings/%d", created.ID), nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("mark sold: %w", err)
	}
	return nil
}

func newClient(issuer *identity.Service, userID string) (*client, error) {
	token, err := issuer.IssueToken(identity.Identity{UserID: userID, Name: userID}, time.Hour)
	if err != nil {
		return nil, err
	}
	return &client{token: token, http: &http.Client{Timeout: 10 * time.Second}}, nil
}

func (c *client) do(method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, *baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
