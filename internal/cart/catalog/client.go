package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrUnavailable covers timeouts, transport failures, 5xx responses and
	// an open circuit breaker. Callers must treat it as "not available", never
	// as implicit stock.
	ErrUnavailable = errors.New("catalog service unavailable")
)

const maxResponseSize = 1 << 20 // 1MB

// Product is the catalog's view of a product as the cart consumes it. The
// cart stores product ids only and re-resolves this snapshot on read.
type Product struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	ImageURL     string  `json:"image_url"`
	Active       bool    `json:"active"`
}

type stockReport struct {
	ProductID    int64 `json:"product_id"`
	CurrentStock int   `json:"current_stock"`
	Requested    int   `json:"requested_quantity"`
	Available    bool  `json:"available"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type fetchResult struct {
	status int
	body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*fetchResult]
	group   singleflight.Group
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*fetchResult](gobreaker.Settings{
			Name:        "catalog",
			MaxRequests: 3,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// CheckStock asks the catalog whether quantity units of a product are
// currently available. This is a point-in-time read; stock is not reserved.
func (c *Client) CheckStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	query := url.Values{"quantity": []string{strconv.Itoa(quantity)}}
	res, err := c.fetch(ctx, fmt.Sprintf("/api/products/%d/stock", productID), query)
	if err != nil {
		return false, err
	}

	switch res.status {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, ErrProductNotFound
	default:
		return false, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, res.status)
	}

	var report stockReport
	if err := decodeData(res.body, &report); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return report.Available, nil
}

// GetProduct resolves a product snapshot. Concurrent lookups for the same id
// are collapsed into a single request.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	v, err, _ := c.group.Do(strconv.FormatInt(productID, 10), func() (interface{}, error) {
		res, err := c.fetch(ctx, fmt.Sprintf("/api/products/%d", productID), nil)
		if err != nil {
			return nil, err
		}

		switch res.status {
		case http.StatusOK:
		case http.StatusNotFound:
			return nil, ErrProductNotFound
		default:
			return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, res.status)
		}

		var product Product
		if err := decodeData(res.body, &product); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return &product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

// Health probes the catalog's health endpoint, bypassing the circuit breaker
// so a tripped breaker cannot mask a recovered dependency.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path string, query url.Values) (*fetchResult, error) {
	res, err := c.breaker.Execute(func() (*fetchResult, error) {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, err
		}

		// 5xx counts as a breaker failure, client errors do not.
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
		}

		return &fetchResult{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, nil
}

func decodeData(body []byte, dst interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal response failed: %w", err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("unmarshal response data failed: %w", err)
	}
	return nil
}
