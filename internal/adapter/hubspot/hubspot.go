// Package hubspot provides the CRM tool adapter: remote contact and note
// creation through the HubSpot API and local searches over the contact mirror.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain"
	"github.com/Strob0t/TaskForge/internal/domain/contact"
	"github.com/Strob0t/TaskForge/internal/domain/tool"
	"github.com/Strob0t/TaskForge/internal/port/credentials"
	"github.com/Strob0t/TaskForge/internal/port/database"
	"github.com/Strob0t/TaskForge/internal/resilience"
)

// Client is the CRM tool adapter. Tool-facing methods never return an
// error; every failure is folded into the outcome.
type Client struct {
	apiBase    string
	httpClient *http.Client
	breaker    *resilience.Breaker
	creds      credentials.Source
	store      database.Store
	logger     *slog.Logger
	now        func() time.Time // for testing
}

// NewClient creates the CRM adapter.
func NewClient(apiBase string, creds credentials.Source, store database.Store, logger *slog.Logger) *Client {
	return &Client{
		apiBase: apiBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		creds:  creds,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// CreateContact creates a contact remotely, mirrors it locally and chains
// an optional note. A note failure after a successful create does not undo
// the create; the outcome reports the contact.
func (c *Client) CreateContact(ctx context.Context, ownerID string, args tool.CreateContactArgs) tool.Outcome {
	token, err := c.creds.Token(ctx, ownerID, credentials.ProviderHubSpot)
	if err != nil {
		return tool.Fail(fmt.Sprintf("hubspot not connected: %v", err))
	}

	properties := map[string]string{"email": args.Email}
	if args.FirstName != "" {
		properties["firstname"] = args.FirstName
	}
	if args.LastName != "" {
		properties["lastname"] = args.LastName
	}
	if args.Company != "" {
		properties["company"] = args.Company
	}

	body, err := json.Marshal(map[string]any{"properties": properties})
	if err != nil {
		return tool.Fail(fmt.Sprintf("encode contact: %v", err))
	}

	var remoteID string
	if err := c.postJSON(ctx, token, "/crm/v3/objects/contacts", body, &remoteID); err != nil {
		c.logger.Warn("create contact failed", "owner", ownerID, "email", args.Email, "error", err)
		return tool.Fail(err.Error())
	}

	mirrored := &contact.Contact{
		OwnerID:   ownerID,
		RemoteID:  remoteID,
		Email:     args.Email,
		FirstName: args.FirstName,
		LastName:  args.LastName,
		Company:   args.Company,
	}
	if err := c.store.InsertContact(ctx, mirrored); err != nil {
		c.logger.Warn("contact mirror write failed", "owner", ownerID, "remote_id", remoteID, "error", err)
	}

	if args.Note != "" {
		noteOutcome := c.AddNote(ctx, ownerID, tool.AddNoteArgs{ContactEmail: args.Email, Note: args.Note})
		if !noteOutcome.Success {
			c.logger.Warn("chained note failed", "owner", ownerID, "email", args.Email, "error", noteOutcome.Error)
		}
	}

	c.logger.Info("crm contact created", "owner", ownerID, "contact_id", remoteID)
	return tool.OK(map[string]any{
		"contact_id": remoteID,
		"email":      args.Email,
		"name":       strings.TrimSpace(args.FirstName + " " + args.LastName),
	})
}

// SearchContacts searches the local contact mirror. The search fails closed
// when the CRM was never connected; an empty result from a connected CRM is
// a successful outcome.
func (c *Client) SearchContacts(ctx context.Context, ownerID string, args tool.SearchContactsArgs) tool.Outcome {
	if _, err := c.creds.Token(ctx, ownerID, credentials.ProviderHubSpot); err != nil {
		if errors.Is(err, credentials.ErrNotConnected) {
			return tool.Outcome{
				Success: false,
				Error:   "HubSpot not connected. Please connect HubSpot first.",
				Payload: map[string]any{"results": []map[string]any{}, "count": 0},
			}
		}
		return tool.Fail(fmt.Sprintf("hubspot credentials: %v", err))
	}

	contacts, err := c.store.SearchContacts(ctx, ownerID, args.Query)
	if err != nil {
		return tool.Fail(fmt.Sprintf("search contacts: %v", err))
	}

	results := make([]map[string]any, 0, len(contacts))
	for _, ct := range contacts {
		results = append(results, map[string]any{
			"id":         ct.RemoteID,
			"email":      ct.Email,
			"first_name": ct.FirstName,
			"last_name":  ct.LastName,
			"company":    ct.Company,
		})
	}

	return tool.OK(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// AddNote attaches a note to a locally mirrored contact. A contact unknown
// to the mirror fails with "Contact not found" without any remote call.
func (c *Client) AddNote(ctx context.Context, ownerID string, args tool.AddNoteArgs) tool.Outcome {
	mirrored, err := c.store.GetContactByEmail(ctx, ownerID, args.ContactEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return tool.Fail("Contact not found")
		}
		return tool.Fail(fmt.Sprintf("lookup contact: %v", err))
	}

	token, err := c.creds.Token(ctx, ownerID, credentials.ProviderHubSpot)
	if err != nil {
		return tool.Fail(fmt.Sprintf("hubspot not connected: %v", err))
	}

	body, err := json.Marshal(map[string]any{
		"properties": map[string]any{
			"hs_note_body": args.Note,
			"hs_timestamp": c.now().UnixMilli(),
		},
		"associations": []map[string]any{
			{
				"to": map[string]string{"id": mirrored.RemoteID},
				"types": []map[string]any{
					{"associationCategory": "HUBSPOT_DEFINED", "associationTypeId": 202},
				},
			},
		},
	})
	if err != nil {
		return tool.Fail(fmt.Sprintf("encode note: %v", err))
	}

	var noteID string
	if err := c.postJSON(ctx, token, "/crm/v3/objects/notes", body, &noteID); err != nil {
		c.logger.Warn("add note failed", "owner", ownerID, "email", args.ContactEmail, "error", err)
		return tool.Fail(err.Error())
	}

	n := &contact.Note{ContactID: mirrored.ID, Body: args.Note}
	if err := c.store.InsertNote(ctx, n); err != nil {
		c.logger.Warn("note mirror write failed", "owner", ownerID, "note_id", noteID, "error", err)
	}

	return tool.OK(map[string]any{
		"note_id":       noteID,
		"contact_email": args.ContactEmail,
	})
}

// postJSON posts body to path and extracts the created object's ID.
func (c *Client) postJSON(ctx context.Context, token, path string, body []byte, outID *string) error {
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("hubspot API error %d: %s", resp.StatusCode, string(data))
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		*outID = result.ID
		return nil
	}
	return c.execute(call)
}

func (c *Client) execute(call func() error) error {
	if c.breaker != nil {
		return c.breaker.Execute(call)
	}
	return call()
}
