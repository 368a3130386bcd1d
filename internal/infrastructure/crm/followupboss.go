// Package crm is the Follow Up Boss REST client used by the CRM sink and the
// integration endpoints.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.followupboss.com"
	DefaultTimeout = 15 * time.Second

	leadEventType = "General Inquiry"
	maxErrorBody  = 512
)

// Config describes how to reach the CRM. System and SystemKey identify this
// integration to Follow Up Boss and are optional.
type Config struct {
	BaseURL   string
	System    string
	SystemKey string
	Timeout   time.Duration
}

// Client calls the CRM with a per-request API key; it holds no credentials.
type Client struct {
	baseURL   string
	system    string
	systemKey string
	http      *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:   baseURL,
		system:    cfg.System,
		systemKey: cfg.SystemKey,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout: 10 * time.Second,
				IdleConnTimeout:     60 * time.Second,
				MaxIdleConns:        50,
				MaxConnsPerHost:     20,
			},
		},
	}
}

// APIError is a non-2xx CRM response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm responded %d: %s", e.Status, e.Body)
}

type emailValue struct {
	Value string `json:"value"`
}

type phoneValue struct {
	Value string `json:"value"`
}

type personPayload struct {
	FirstName string       `json:"firstName,omitempty"`
	LastName  string       `json:"lastName,omitempty"`
	Emails    []emailValue `json:"emails,omitempty"`
	Phones    []phoneValue `json:"phones,omitempty"`
	Tags      []string     `json:"tags,omitempty"`
	Source    string       `json:"source,omitempty"`
}

type eventPayload struct {
	Source  string        `json:"source"`
	System  string        `json:"system,omitempty"`
	Type    string        `json:"type"`
	Message string        `json:"message,omitempty"`
	PageURL string        `json:"pageUrl,omitempty"`
	Person  personPayload `json:"person"`
}

// Me returns the account that owns apiKey.
func (c *Client) Me(ctx context.Context, apiKey string) (*ports.CRMAccount, error) {
	var out struct {
		ID    json.Number `json:"id"`
		Name  string      `json:"name"`
		Email string      `json:"email"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/me", apiKey, nil, &out); err != nil {
		return nil, fmt.Errorf("crm me: %w", err)
	}
	return &ports.CRMAccount{ID: out.ID.String(), Name: out.Name, Email: out.Email}, nil
}

// UpsertContact creates or updates the person matched by email and returns
// the CRM person id.
func (c *Client) UpsertContact(ctx context.Context, apiKey string, contact ports.CRMContact) (string, error) {
	body := personPayload{
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Emails:    []emailValue{{Value: contact.Email}},
		Tags:      contact.Tags,
		Source:    contact.Source,
	}
	for _, p := range contact.Phones {
		body.Phones = append(body.Phones, phoneValue{Value: p})
	}

	var out struct {
		ID json.Number `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/people?deduplicate=true", apiKey, body, &out); err != nil {
		return "", fmt.Errorf("crm upsert contact: %w", err)
	}
	return out.ID.String(), nil
}

// SendEvent posts an inbound lead. Follow Up Boss creates or matches the
// person and runs its lead routing.
func (c *Client) SendEvent(ctx context.Context, apiKey string, lead ports.CRMLead) error {
	person := personPayload{FirstName: lead.FirstName, LastName: lead.LastName}
	if lead.Email != "" {
		person.Emails = []emailValue{{Value: lead.Email}}
	}
	if lead.Phone != "" {
		person.Phones = []phoneValue{{Value: lead.Phone}}
	}

	body := eventPayload{
		Source:  lead.Source,
		System:  c.system,
		Type:    leadEventType,
		Message: lead.Message,
		PageURL: lead.PageURL,
		Person:  person,
	}
	if err := c.do(ctx, http.MethodPost, "/v1/events", apiKey, body, nil); err != nil {
		return fmt.Errorf("crm send event: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, apiKey string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(apiKey, "")
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.system != "" {
		req.Header.Set("X-System", c.system)
	}
	if c.systemKey != "" {
		req.Header.Set("X-System-Key", c.systemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.ErrCredentialsRevoked
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
