// Package client is a typed HTTP client for the sitebooks API.
package client

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
	"sync"
	"time"

	"sitebooks-backend/internal/ledger"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/store"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sitebooks api %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to one sitebooks server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken starts the client with a bearer token from an earlier login.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL, e.g. "https://books.example.com".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// LoginResult is the session returned by Login.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// Login exchanges credentials for a token and uses it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	return call[model.User](ctx, c, http.MethodGet, "/api/auth/me", nil, nil)
}

func (c *Client) Projects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Project(ctx context.Context, id uint) (*model.Project, error) {
	return call[model.Project](ctx, c, http.MethodGet, fmt.Sprintf("/api/projects/%d", id), nil, nil)
}

func (c *Client) CreateProject(ctx context.Context, in store.ProjectInput) (*model.Project, error) {
	return call[model.Project](ctx, c, http.MethodPost, "/api/projects", nil, in)
}

// ProjectLedger fetches a project's ledger. from and to are YYYY-MM-DD or empty.
func (c *Client) ProjectLedger(ctx context.Context, id uint, from, to string) (*store.ProjectLedgerReport, error) {
	return call[store.ProjectLedgerReport](ctx, c, http.MethodGet, fmt.Sprintf("/api/projects/%d/ledger", id), rangeValues(from, to), nil)
}

// CashExpenses fetches a project's cash outflows on date (YYYY-MM-DD).
func (c *Client) CashExpenses(ctx context.Context, projectID uint, date string) (*ledger.CashReport, error) {
	q := url.Values{"date": {date}}
	return call[ledger.CashReport](ctx, c, http.MethodGet, fmt.Sprintf("/api/reports/cash-expenses/%d", projectID), q, nil)
}

// Contractors lists contractors, optionally of one project.
func (c *Client) Contractors(ctx context.Context, projectID uint) ([]model.Contractor, error) {
	var out []model.Contractor
	var q url.Values
	if projectID != 0 {
		q = url.Values{"projectId": {fmt.Sprint(projectID)}}
	}
	if err := c.do(ctx, http.MethodGet, "/api/contractors", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateContractor(ctx context.Context, in store.ContractorInput) (*model.Contractor, error) {
	return call[model.Contractor](ctx, c, http.MethodPost, "/api/contractors", nil, in)
}

func (c *Client) CreateContractorEntry(ctx context.Context, contractorID uint, in store.EntryInput) (*model.ContractorEntry, error) {
	return call[model.ContractorEntry](ctx, c, http.MethodPost, fmt.Sprintf("/api/contractors/%d/entries", contractorID), nil, in)
}

func (c *Client) CreateContractorPayment(ctx context.Context, contractorID uint, in store.PaymentInput) (*model.ContractorPayment, error) {
	return call[model.ContractorPayment](ctx, c, http.MethodPost, fmt.Sprintf("/api/contractors/%d/payments", contractorID), nil, in)
}

func (c *Client) AllocateContractorPayment(ctx context.Context, contractorID uint, in store.AllocationInput) (*model.ContractorPaymentAllocation, error) {
	return call[model.ContractorPaymentAllocation](ctx, c, http.MethodPost, fmt.Sprintf("/api/contractors/%d/allocations", contractorID), nil, in)
}

func (c *Client) ContractorLedger(ctx context.Context, contractorID uint, from, to string) (*store.PartyLedger, error) {
	return call[store.PartyLedger](ctx, c, http.MethodGet, fmt.Sprintf("/api/contractors/%d/ledger", contractorID), rangeValues(from, to), nil)
}

// call is do for endpoints that return one object.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, in any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, query, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func rangeValues(from, to string) url.Values {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	return q
}

// do sends one request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var envelope struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		apiErr.Message, apiErr.Details = envelope.Error, envelope.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	return apiErr
}
