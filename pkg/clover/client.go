package clover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

// Clover has no maintained Go SDK, so this wraps their REST v3 API directly.

const defaultTimeout = 10 * time.Second

var (
	errTokenRequired   = errors.New("clover api token is required")
	errBaseURLRequired = errors.New("clover base url is required")
)

// Payment is the subset of a Clover payment object the portal consumes.
type Payment struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	CreatedTime int64  `json:"createdTime"`
	Result      string `json:"result"`
	Note        string `json:"note,omitempty"`
}

// Merchant describes the connected Clover merchant account.
type Merchant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type paymentsPage struct {
	Elements []Payment `json:"elements"`
}

// Client talks to the Clover REST v3 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	logger     *logger.Logger
}

// NewClient validates the config and builds the REST wrapper.
func NewClient(cfg config.CloverConfig, logg *logger.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		return nil, errTokenRequired
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    base,
		apiToken:   token,
		logger:     logg,
	}, nil
}

// GetMerchant fetches the merchant record, doubling as a credential check.
func (c *Client) GetMerchant(ctx context.Context, merchantID string) (*Merchant, error) {
	if strings.TrimSpace(merchantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id is required")
	}
	var merchant Merchant
	path := fmt.Sprintf("/v3/merchants/%s", url.PathEscape(merchantID))
	if err := c.get(ctx, path, nil, &merchant); err != nil {
		return nil, err
	}
	return &merchant, nil
}

// ListPayments returns payments created at or after since, newest first.
func (c *Client) ListPayments(ctx context.Context, merchantID string, since time.Time, limit int) ([]Payment, error) {
	if strings.TrimSpace(merchantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id is required")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("orderBy", "createdTime DESC")
	if !since.IsZero() {
		q.Set("filter", fmt.Sprintf("createdTime>=%d", since.UnixMilli()))
	}

	var page paymentsPage
	path := fmt.Sprintf("/v3/merchants/%s/payments", url.PathEscape(merchantID))
	if err := c.get(ctx, path, q, &page); err != nil {
		return nil, err
	}
	return page.Elements, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building clover request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clover request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logError(ctx, path, resp.StatusCode, string(body))
		return mapStatus(resp.StatusCode, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding clover response")
	}
	return nil
}

func (c *Client) logError(ctx context.Context, path string, status int, body string) {
	if c == nil || c.logger == nil {
		return
	}
	ctx = c.logger.WithFields(ctx, map[string]any{
		"path":   path,
		"status": status,
		"body":   strings.TrimSpace(body),
	})
	c.logger.Warn(ctx, "clover api error")
}

func mapStatus(status int, path string) error {
	msg := fmt.Sprintf("clover %s returned %d", path, status)
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msg)
	case http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeForbidden, msg)
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	case http.StatusTooManyRequests:
		return pkgerrors.New(pkgerrors.CodeRateLimit, msg)
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.New(pkgerrors.CodeValidation, msg)
		}
		return pkgerrors.New(pkgerrors.CodeDependency, msg)
	}
}
