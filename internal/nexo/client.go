// Package nexo is the HTTP client for the JurisNexo CRM core. The engine
// treats the core as an external collaborator: mail delivery, task and
// notification creation, and record updates all happen behind its internal
// API, and this client is the single place that knows how to reach it.
package nexo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client talks to the CRM core's internal API. It satisfies the narrow
// collaborator interfaces declared by the action packages.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a client for the core API at baseURL, authenticating
// with the service token.
func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// EmailMessage is an outbound email handed to the core's delivery pipeline.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailReceipt acknowledges acceptance for delivery.
type EmailReceipt struct {
	MessageID  string    `json:"message_id"`
	To         string    `json:"to"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// TaskInput describes a task to create in the practice's task list.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AssigneeID  string `json:"assignee_id,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Priority    string `json:"priority,omitempty"`
	CaseID      string `json:"case_id,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
}

// Task is the created task identity echoed back by the core.
type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NotificationInput fans one message out to one or more users.
type NotificationInput struct {
	UserIDs []string `json:"user_ids"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Type    string   `json:"type,omitempty"`
	Link    string   `json:"link,omitempty"`
}

// Notification is one created in-app notification row.
type Notification struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

func (c *Client) SendEmail(ctx context.Context, tenantID string, message EmailMessage) (*EmailReceipt, error) {
	receipt := &EmailReceipt{}
	if err := c.post(ctx, tenantID, "/internal/v1/emails", message, receipt); err != nil {
		return nil, err
	}

	return receipt, nil
}

func (c *Client) CreateTask(ctx context.Context, tenantID string, input TaskInput) (*Task, error) {
	task := &Task{}
	if err := c.post(ctx, tenantID, "/internal/v1/tasks", input, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (c *Client) CreateNotifications(ctx context.Context, tenantID string, input NotificationInput) ([]Notification, error) {
	var created []Notification
	if err := c.post(ctx, tenantID, "/internal/v1/notifications", input, &created); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateRecord patches one row of a core table on behalf of the tenant. The
// core enforces which tables are reachable this way.
func (c *Client) UpdateRecord(ctx context.Context, tenantID, table, id string, updates map[string]any) (map[string]any, error) {
	var updated map[string]any

	path := fmt.Sprintf("/internal/v1/records/%s/%s", table, id)
	if err := c.do(ctx, http.MethodPatch, tenantID, path, updates, &updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// ListApproachingDeadlines returns deadline rows falling due within the
// window, used by the scheduler to emit deadline_approaching events.
func (c *Client) ListApproachingDeadlines(ctx context.Context, window time.Duration) ([]map[string]any, error) {
	var deadlines []map[string]any

	path := fmt.Sprintf("/internal/v1/deadlines?within=%s", window)
	if err := c.do(ctx, http.MethodGet, "", path, nil, &deadlines); err != nil {
		return nil, err
	}

	return deadlines, nil
}

// ListOverdueInvoices returns unpaid invoices past their due date, used by
// the scheduler to emit payment_overdue events.
func (c *Client) ListOverdueInvoices(ctx context.Context) ([]map[string]any, error) {
	var invoices []map[string]any
	if err := c.do(ctx, http.MethodGet, "", "/internal/v1/invoices/overdue", nil, &invoices); err != nil {
		return nil, err
	}

	return invoices, nil
}

func (c *Client) post(ctx context.Context, tenantID, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, tenantID, path, body, out)
}

func (c *Client) do(ctx context.Context, method, tenantID, path string, body, out any) error {
	var bodyReader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("core API request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return fmt.Errorf("core API returned status %d: %s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode core API response: %w", err)
	}

	return nil
}
