package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/novamart/storefront-backend/pkg/config"
	pkgerrors "github.com/novamart/storefront-backend/pkg/errors"
)

// Client is a typed REST client for the remote commerce API. The storefront
// never computes discounts, tax, or order numbers itself; these endpoints are
// authoritative.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a commerce client from configuration.
func NewClient(cfg config.CommerceConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("commerce base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing commerce base url: %w", err)
	}
	return &Client{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

// ValidateCoupon submits the code with the cart shape and returns the
// server-computed discount.
func (c *Client) ValidateCoupon(ctx context.Context, input CouponValidationInput) (*CouponResult, error) {
	var result CouponResult
	if err := c.post(ctx, "/coupons/validate", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CalculateTax quotes tax for the destination.
func (c *Client) CalculateTax(ctx context.Context, input TaxInput) (*TaxResult, error) {
	var result TaxResult
	if err := c.post(ctx, "/tax/calculate", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPaymentMethods lists methods available for the destination country.
func (c *Client) GetPaymentMethods(ctx context.Context, destinationCountry string) ([]PaymentMethod, error) {
	country := strings.TrimSpace(destinationCountry)
	if country == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination country is required")
	}
	var result []PaymentMethod
	path := "/payment-methods?country=" + url.QueryEscape(country)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateOrder submits the order payload and returns the assigned order number.
func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (*OrderResult, error) {
	var result OrderResult
	if err := c.post(ctx, "/orders", input, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProfile loads the authenticated user's profile for shipping prefill.
func (c *Client) GetProfile(ctx context.Context, token string) (*Profile, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	var result Profile
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commerce api unreachable")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode commerce response")
	}
	return nil
}

// decodeError surfaces the server message verbatim; the UI renders it as-is.
func decodeError(resp *http.Response) error {
	message := fmt.Sprintf("commerce api returned %d", resp.StatusCode)

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if envelope.Error != nil && strings.TrimSpace(envelope.Error.Message) != "" {
			message = envelope.Error.Message
		} else if strings.TrimSpace(envelope.Message) != "" {
			message = envelope.Message
		}
	}

	code := pkgerrors.CodeDependency
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		code = pkgerrors.CodeValidation
	}
	return pkgerrors.New(code, message)
}
