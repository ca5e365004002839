package salesforce

// CRM CONNECTOR
//
// Minimal Salesforce REST client: username-password OAuth flow, SOQL
// queries and sobject creation for Account / Opportunity records.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const apiVersion = "v58.0"

// Opportunity stages used for order tracking.
const (
	StageAccepted  = "Accepted"
	StageDelivery  = "Delivery"
	StageDelivered = "Delivered"
)

type Credentials struct {
	Username       string
	Password       string
	ConsumerKey    string
	ConsumerSecret string
	SecurityToken  string
	LoginURL       string
}

type Client struct {
	creds       Credentials
	httpClient  *http.Client
	maxRetries  uint64
	logger      *zap.Logger
	accessToken string
	instanceURL string
}

type queryResponse struct {
	TotalSize int `json:"totalSize"`
	Records   []struct {
		ID        string `json:"Id"`
		StageName string `json:"StageName"`
	} `json:"records"`
}

type createResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
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

// Login performs the username-password OAuth flow. The process must not
// serve traffic without a valid session, so callers treat failure as fatal.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.creds.ConsumerKey},
		"client_secret": {c.creds.ConsumerSecret},
		"username":      {c.creds.Username},
		"password":      {c.creds.Password + c.creds.SecurityToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.creds.LoginURL+"/services/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		InstanceURL string `json:"instance_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	c.accessToken = result.AccessToken
	c.instanceURL = result.InstanceURL

	c.logger.Info("Salesforce session established",
		zap.String("instance_url", c.instanceURL))
	return nil
}

// GetAccountByPhone returns the account ID for a phone number, or "" when
// no account exists.
func (c *Client) GetAccountByPhone(ctx context.Context, phone string) (string, error) {
	soql := fmt.Sprintf("SELECT Id FROM Account WHERE Phone = '%s' LIMIT 1", soqlEscape(phone))

	var result queryResponse
	if err := c.query(ctx, soql, &result); err != nil {
		return "", fmt.Errorf("get account: %w", err)
	}

	if result.TotalSize == 0 {
		return "", nil
	}
	return result.Records[0].ID, nil
}

// CreateAccount creates an account keyed by phone and returns its ID.
func (c *Client) CreateAccount(ctx context.Context, name, phone string) (string, error) {
	id, err := c.createObject(ctx, "Account", map[string]any{
		"Name":  name,
		"Phone": phone,
	})
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}

	c.logger.Info("Created Salesforce account", zap.String("account_id", id))
	return id, nil
}

// CreateOpportunity records a finalized order against an account.
func (c *Client) CreateOpportunity(ctx context.Context, accountID string, amount float64, orderNumber, description, phone string) (string, error) {
	id, err := c.createObject(ctx, "Opportunity", map[string]any{
		"Name":           formatOrderName(orderNumber, phone),
		"AccountId":      accountID,
		"StageName":      StageAccepted,
		"Amount":         amount,
		"CloseDate":      time.Now().Format("2006-01-02"),
		"Description":    description,
		"OrderNumber__c": orderNumber,
	})
	if err != nil {
		return "", fmt.Errorf("create opportunity: %w", err)
	}

	c.logger.Info("Created Salesforce opportunity",
		zap.String("opportunity_id", id),
		zap.String("order_number", orderNumber))
	return id, nil
}

// GetOpportunityStageByOrderNumber returns the stage of the opportunity
// carrying the given order number, or "" when none matches.
func (c *Client) GetOpportunityStageByOrderNumber(ctx context.Context, orderNumber string) (string, error) {
	soql := fmt.Sprintf("SELECT StageName FROM Opportunity WHERE OrderNumber__c = '%s' LIMIT 1",
		soqlEscape(orderNumber))

	var result queryResponse
	if err := c.query(ctx, soql, &result); err != nil {
		return "", fmt.Errorf("get opportunity stage: %w", err)
	}

	if result.TotalSize == 0 {
		return "", nil
	}
	return result.Records[0].StageName, nil
}

// GetOpportunityStage returns the current stage of an opportunity by its
// record ID, or "" when the ID matches nothing. Used by the operator
// tooling, not by the dialog flow.
func (c *Client) GetOpportunityStage(ctx context.Context, opportunityID string) (string, error) {
	soql := fmt.Sprintf("SELECT StageName FROM Opportunity WHERE Id = '%s' LIMIT 1",
		soqlEscape(opportunityID))

	var result queryResponse
	if err := c.query(ctx, soql, &result); err != nil {
		return "", fmt.Errorf("get opportunity: %w", err)
	}

	if result.TotalSize == 0 {
		return "", nil
	}
	return result.Records[0].StageName, nil
}

// UpdateOpportunityStage moves an opportunity to a new stage. Used by the
// operator tooling, not by the dialog flow.
func (c *Client) UpdateOpportunityStage(ctx context.Context, opportunityID, stage string) error {
	payload, err := json.Marshal(map[string]any{"StageName": stage})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/Opportunity/%s",
		c.instanceURL, apiVersion, opportunityID)

	err = c.doWithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update opportunity stage: %w", err)
	}

	c.logger.Info("Updated opportunity stage",
		zap.String("opportunity_id", opportunityID),
		zap.String("stage", stage))
	return nil
}

func (c *Client) query(ctx context.Context, soql string, result *queryResponse) error {
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s",
		c.instanceURL, apiVersion, url.QueryEscape(soql))

	return c.doWithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		*result = queryResponse{}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (c *Client) createObject(ctx context.Context, sobject string, fields map[string]any) (string, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/services/data/%s/sobjects/%s",
		c.instanceURL, apiVersion, sobject)

	var result createResponse
	err = c.doWithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		result = createResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return result.ID, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func (c *Client) doWithRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), c.maxRetries),
		ctx,
	)

	return backoff.RetryNotify(op, policy, func(err error, d time.Duration) {
		c.logger.Warn("Salesforce request failed, retrying...",
			zap.Error(err),
			zap.Duration("next_attempt_in", d))
	})
}

// formatOrderName builds the opportunity name the operators search by:
// <order number>-<dd/mm/yy(hh:mm)>-<phone>.
func formatOrderName(orderNumber, phone string) string {
	return fmt.Sprintf("%s-%s-%s", orderNumber, time.Now().Format("02/01/06(15:04)"), phone)
}

func soqlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
