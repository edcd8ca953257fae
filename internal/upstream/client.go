package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ayamansour/souqsync/internal/identity"
	"github.com/ayamansour/souqsync/pkg/config"
	pkgerrors "github.com/ayamansour/souqsync/pkg/errors"
	"github.com/ayamansour/souqsync/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("upstream base url is required")
	errLoggerRequired  = errors.New("upstream logger is required")
)

// Client talks to the marketplace API. It is shared across sessions; per
// session credentials are bound with ForSession.
type Client struct {
	httpClient *http.Client
	baseURL    string
	attempts   int
	backoff    time.Duration
	logger     *logger.Logger
}

// NewClient validates the configuration and builds the shared client.
func NewClient(cfg config.UpstreamConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("upstream base url: %w", err)
	}

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		attempts:   attempts,
		backoff:    backoff,
		logger:     logg,
	}, nil
}

// ForSession binds the shared client to one session's bearer token. Guest
// sessions pass an empty token; the marketplace scopes their cart by the
// forwarded session key instead.
func (c *Client) ForSession(token, sessionKey string) *SessionClient {
	return &SessionClient{client: c, token: token, sessionKey: sessionKey}
}

// SessionClient issues marketplace calls on behalf of one session.
type SessionClient struct {
	client     *Client
	token      string
	sessionKey string
}

// GetCart fetches the authoritative cart snapshot.
func (s *SessionClient) GetCart(ctx context.Context) (CartSnapshot, error) {
	var out CartSnapshot
	err := s.do(ctx, http.MethodGet, "/api/cart", nil, &out)
	return out, err
}

// AddCartItem adds or increments a line and returns the fresh snapshot.
func (s *SessionClient) AddCartItem(ctx context.Context, id identity.UpstreamID, quantity int, price float64) (CartSnapshot, error) {
	var out CartSnapshot
	err := s.do(ctx, http.MethodPost, "/api/cart/items", addCartItemRequest{ID: id, Quantity: quantity, Price: price}, &out)
	return out, err
}

// UpdateCartItemQuantity overwrites a line's quantity and returns the fresh
// snapshot.
func (s *SessionClient) UpdateCartItemQuantity(ctx context.Context, id identity.UpstreamID, quantity int) (CartSnapshot, error) {
	var out CartSnapshot
	err := s.do(ctx, http.MethodPatch, "/api/cart/items/"+url.PathEscape(id.String()), updateQuantityRequest{Quantity: quantity}, &out)
	return out, err
}

// RemoveCartItem drops a line and returns the fresh snapshot.
func (s *SessionClient) RemoveCartItem(ctx context.Context, id identity.UpstreamID) (CartSnapshot, error) {
	var out CartSnapshot
	err := s.do(ctx, http.MethodDelete, "/api/cart/items/"+url.PathEscape(id.String()), nil, &out)
	return out, err
}

// ClearCart empties the server-side cart. The response body is ignored.
func (s *SessionClient) ClearCart(ctx context.Context) error {
	return s.do(ctx, http.MethodDelete, "/api/cart", nil, nil)
}

// GetWishlist lists the session's server-side wishlist.
func (s *SessionClient) GetWishlist(ctx context.Context) ([]WishlistEntry, error) {
	var out []WishlistEntry
	err := s.do(ctx, http.MethodGet, "/api/wishlist", nil, &out)
	return out, err
}

// ToggleWishlist flips membership for the product and returns the resulting
// state. A response with success=false is surfaced as a dependency error.
func (s *SessionClient) ToggleWishlist(ctx context.Context, id identity.UpstreamID) (ToggleResult, error) {
	var out ToggleResult
	if err := s.do(ctx, http.MethodPost, "/api/wishlist/toggle", toggleWishlistRequest{ProductID: id}, &out); err != nil {
		return ToggleResult{}, err
	}
	if !out.Success {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeDependency, "wishlist toggle rejected by marketplace")
	}
	return out, nil
}

// GetProductByID fetches a catalog record without session scoping. The
// marketplace catalog endpoints are public.
func (c *Client) GetProductByID(ctx context.Context, id identity.UpstreamID) (Product, error) {
	return c.ForSession("", "").GetProductByID(ctx, id)
}

// GetProductByID fetches the catalog record for enrichment.
func (s *SessionClient) GetProductByID(ctx context.Context, id identity.UpstreamID) (Product, error) {
	var out Product
	err := s.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id.String()), nil, &out)
	return out, err
}

// do runs one marketplace call with retries on transport errors and 5xx
// responses. 4xx responses are terminal.
func (s *SessionClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode upstream request")
		}
		payload = encoded
	}

	op := method + " " + path
	backoff := retry.WithMaxRetries(uint64(s.client.attempts-1), retry.NewExponential(s.client.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, s.client.baseURL+path, reader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
		if s.sessionKey != "" {
			req.Header.Set("X-Session-Key", s.sessionKey)
		}

		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(fmt.Errorf("upstream returned %d", resp.StatusCode))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			io.Copy(io.Discard, resp.Body)
			return pkgerrors.New(codeForStatus(resp.StatusCode), fmt.Sprintf("upstream %s returned %d", op, resp.StatusCode))
		}
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upstream response")
		}
		return nil
	})
	if err != nil {
		s.client.logger.Error(s.client.logger.WithField(ctx, "operation", op), "upstream call failed", err)
		var coded *pkgerrors.Error
		if errors.As(err, &coded) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("upstream %s failed", op))
	}
	return nil
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
