package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const salesOrderResource = "/api/resource/Sales Order"

// frappeMaxAttempts bounds the retry loop for sales order creation
const frappeMaxAttempts = 3

// FrappeService creates sales orders in the Frappe ERP
type FrappeService struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewFrappeService creates a new Frappe service instance
func NewFrappeService(baseURL, apiKey, apiSecret string) (*FrappeService, error) {
	if baseURL == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing Frappe credentials")
	}

	return &FrappeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// CreateSalesOrder creates a draft sales order from extracted order details.
// Transient failures are retried with exponential backoff.
func (f *FrappeService) CreateSalesOrder(ctx context.Context, orderDetails map[string]any) (map[string]any, error) {
	payload := map[string]any{
		"doctype": "Sales Order",
		"status":  "Draft",
	}
	for k, v := range orderDetails {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sales order: %w", err)
	}

	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= frappeMaxAttempts; attempt++ {
		result, err := f.postSalesOrder(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Printf("❌ Sales order attempt %d/%d failed: %v", attempt, frappeMaxAttempts, err)

		if attempt < frappeMaxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("failed to create sales order: %w", lastErr)
}

func (f *FrappeService) postSalesOrder(ctx context.Context, body []byte) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+salesOrderResource, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", f.apiKey, f.apiSecret))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("frappe returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("invalid frappe response: %w", err)
	}

	log.Printf("✅ Sales order created in Frappe")
	return result, nil
}
