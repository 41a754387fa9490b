package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cartsync/internal/domain"
)

const userAgent = "cartsync/1.0"

// Config holds HTTP client configuration for the cart resource.
type Config struct {
	// BaseURL of the cart resource, e.g. "https://shop.example.com/api".
	BaseURL string

	// Tokens supplies the optional bearer credential. Nil means anonymous.
	Tokens TokenProvider

	// AnonymousID is sent as X-Anonymous-Id so the resource can correlate
	// anonymous carts across restarts.
	AnonymousID string

	// Timeout for each request. Defaults to 10s.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures before the
	// circuit breaker opens. Defaults to 5.
	FailureThreshold uint32

	Logger *slog.Logger
}

// HTTPClient implements Client against the REST contract of the cart
// resource. Every call runs through a circuit breaker: once the resource
// has failed repeatedly, calls short-circuit to ErrUnavailable instead of
// stalling each mutation on a dead connection.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenProvider
	anonID     string
	breaker    *gobreaker.CircuitBreaker[*domain.Cart]
	logger     *slog.Logger
}

func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker[*domain.Cart](gobreaker.Settings{
		Name:    "cart-resource",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Anonymous visitors get 401s on every call; that is expected and
		// must not open the breaker for everyone else.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnauthenticated)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cart resource breaker state change",
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:  cfg.Tokens,
		anonID:  cfg.AnonymousID,
		breaker: breaker,
		logger:  logger,
	}, nil
}

func (c *HTTPClient) Fetch(ctx context.Context) (*domain.Cart, error) {
	return c.execute(ctx, http.MethodGet, "/cart", nil, false)
}

func (c *HTTPClient) AddItem(ctx context.Context, req AddItemRequest) (*domain.Cart, error) {
	return c.execute(ctx, http.MethodPost, "/cart/items", req, false)
}

func (c *HTTPClient) SetQuantity(ctx context.Context, lineItemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	path := "/cart/items/" + url.PathEscape(lineItemID)
	return c.execute(ctx, http.MethodPatch, path, map[string]int{"quantity": quantity}, false)
}

func (c *HTTPClient) RemoveItem(ctx context.Context, lineItemID string) (*domain.Cart, error) {
	path := "/cart/items/" + url.PathEscape(lineItemID)
	return c.execute(ctx, http.MethodDelete, path, nil, false)
}

func (c *HTTPClient) Clear(ctx context.Context) error {
	_, err := c.execute(ctx, http.MethodDelete, "/cart", nil, true)
	return err
}

// execute wraps do with the circuit breaker and maps breaker rejections to
// the unavailable error kind.
func (c *HTTPClient) execute(ctx context.Context, method, path string, body interface{}, allowEmpty bool) (*domain.Cart, error) {
	cart, err := c.breaker.Execute(func() (*domain.Cart, error) {
		return c.do(ctx, method, path, body, allowEmpty)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", ErrUnavailable)
		}
		return nil, err
	}
	return cart, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}, allowEmpty bool) (*domain.Cart, error) {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthenticated
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNoContent || len(respBody) == 0:
		// Only Clear comes back bodyless (204). An empty body anywhere else
		// is off contract and must not be adopted as an empty cart.
		if !allowEmpty {
			return nil, fmt.Errorf("%w: empty cart response", ErrUnavailable)
		}
		return nil, nil
	}

	var cart domain.Cart
	if err := json.Unmarshal(respBody, &cart); err != nil {
		return nil, fmt.Errorf("%w: parsing cart response: %v", ErrUnavailable, err)
	}
	return &cart, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if c.tokens != nil {
		if token := c.tokens(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if c.anonID != "" {
		req.Header.Set("X-Anonymous-Id", c.anonID)
	}
}
