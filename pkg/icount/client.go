package icount

// BILLING CONNECTOR
//
// iCount API v3: session login, client creation and document creation
// (shipping document + invoice/receipt).

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	shippingDocDescription = "מסמך משלוח"
	invoiceDescription     = "חשבונית מס"
)

type Credentials struct {
	CID      string
	Username string
	Password string
	BaseURL  string
}

type Client struct {
	creds      Credentials
	httpClient *http.Client
	maxRetries uint64
	logger     *zap.Logger
	sessionID  string
}

func NewClient(creds Credentials, timeout time.Duration, maxRetries uint64, logger *zap.Logger) *Client {
	return &Client{
		creds: creds,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Login authenticates and stores the session ID. Callers treat a failure
// here as fatal at startup.
func (c *Client) Login(ctx context.Context) error {
	var result struct {
		SID string `json:"sid"`
	}
	if err := c.post(ctx, "/auth/login", c.authPayload(), &result); err != nil {
		return fmt.Errorf("icount login: %w", err)
	}

	if result.SID == "" {
		return fmt.Errorf("icount login: no session ID in response")
	}

	c.sessionID = result.SID
	c.logger.Info("iCount session established")
	return nil
}

// RenewSession re-authenticates after the API reports an expired session.
// post calls it on a 401 before retrying the original request.
func (c *Client) RenewSession(ctx context.Context) error {
	return c.Login(ctx)
}

// CreateClient registers the customer and returns the iCount client ID,
// or "" when creation failed.
func (c *Client) CreateClient(ctx context.Context, name, phone string) (string, error) {
	payload := c.authPayload()
	payload["client_name"] = name
	payload["phone"] = phone

	// The API is loose about types here: client_id may arrive as a
	// number or a string.
	var result struct {
		ClientID any `json:"client_id"`
	}
	if err := c.post(ctx, "/client/create", payload, &result); err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	var clientID string
	switch v := result.ClientID.(type) {
	case string:
		clientID = v
	case float64:
		clientID = strconv.FormatFloat(v, 'f', -1, 64)
	}

	if clientID == "" {
		return "", nil
	}

	c.logger.Info("iCount client created", zap.String("client_id", clientID))
	return clientID, nil
}

// CreateShippingDocument creates the delivery document for an order and
// returns its URL.
func (c *Client) CreateShippingDocument(ctx context.Context, orderNumber, address, name, clientID string) (string, error) {
	return c.createDoc(ctx, orderNumber, address, name, clientID, shippingDocDescription, 0)
}

// CreateInvoice creates the tax invoice for an order and returns its URL.
func (c *Client) CreateInvoice(ctx context.Context, orderNumber string, totalPrice float64, address, name, clientID string) (string, error) {
	return c.createDoc(ctx, orderNumber, address, name, clientID, invoiceDescription, totalPrice)
}

// ProcessOrder runs the full billing sequence: client, shipping document,
// invoice. It stops at the first failing step and returns the invoice URL.
func (c *Client) ProcessOrder(ctx context.Context, name, phone, orderNumber string, totalPrice float64, address string) (string, error) {
	clientID, err := c.CreateClient(ctx, name, phone)
	if err != nil {
		return "", err
	}
	if clientID == "" {
		return "", fmt.Errorf("client creation failed for order %s", orderNumber)
	}

	shippingURL, err := c.CreateShippingDocument(ctx, orderNumber, address, name, clientID)
	if err != nil {
		return "", err
	}
	if shippingURL == "" {
		return "", fmt.Errorf("shipping document creation failed for order %s", orderNumber)
	}

	invoiceURL, err := c.CreateInvoice(ctx, orderNumber, totalPrice, address, name, clientID)
	if err != nil {
		return "", err
	}
	if invoiceURL == "" {
		return "", fmt.Errorf("invoice creation failed for order %s", orderNumber)
	}

	c.logger.Info("iCount order processed",
		zap.String("order_number", orderNumber),
		zap.String("client_id", clientID),
		zap.String("invoice_url", invoiceURL))
	return invoiceURL, nil
}

func (c *Client) createDoc(ctx context.Context, orderNumber, address, name, clientID, description string, totalPrice float64) (string, error) {
	// The API rejects zero sums; price-less documents go out with a
	// nominal unit price of 1, same as the legacy integration.
	unitPrice := totalPrice
	if unitPrice == 0 {
		unitPrice = 1
	}

	payload := c.authPayload()
	payload["doctype"] = "invrec"
	payload["description"] = orderNumber
	payload["client_address"] = address
	payload["client_name"] = name
	payload["tax_exempt"] = 1
	payload["client_id"] = clientID
	payload["items"] = []map[string]any{
		{
			"quantity":    1,
			"unitprice":   unitPrice,
			"description": description,
		},
	}
	payload["cash"] = map[string]any{"sum": unitPrice}

	var result struct {
		DocURL string `json:"doc_url"`
	}
	if err := c.post(ctx, "/doc/create", payload, &result); err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	return result.DocURL, nil
}

func (c *Client) authPayload() map[string]any {
	return map[string]any{
		"cid":  c.creds.CID,
		"user": c.creds.Username,
		"pass": c.creds.Password,
	}
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), c.maxRetries),
		ctx,
	)

	return backoff.RetryNotify(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized && path != "/auth/login" {
			// Session expired mid-flight: renew it, then let the
			// retry loop replay the request.
			if rerr := c.RenewSession(ctx); rerr != nil {
				return fmt.Errorf("renew session: %w", rerr)
			}
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}, policy, func(err error, d time.Duration) {
		c.logger.Warn("iCount request failed, retrying...",
			zap.Error(err),
			zap.Duration("next_attempt_in", d))
	})
}
