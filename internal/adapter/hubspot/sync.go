package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Strob0t/TaskForge/internal/domain/contact"
	"github.com/Strob0t/TaskForge/internal/port/credentials"
)

// ListRemoteContacts fetches up to max contacts from the HubSpot API for
// the sync service. Unlike the tool methods this returns an error: sync
// callers handle faults themselves.
func (c *Client) ListRemoteContacts(ctx context.Context, ownerID string, max int) ([]*contact.Contact, error) {
	token, err := c.creds.Token(ctx, ownerID, credentials.ProviderHubSpot)
	if err != nil {
		return nil, fmt.Errorf("hubspot credentials: %w", err)
	}

	url := fmt.Sprintf("%s/crm/v3/objects/contacts?properties=email,firstname,lastname,company&limit=%d", c.apiBase, max)

	var result struct {
		Results []struct {
			ID         string            `json:"id"`
			Properties map[string]string `json:"properties"`
		} `json:"results"`
	}

	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

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
		return json.Unmarshal(data, &result)
	}
	if err := c.execute(call); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	contacts := make([]*contact.Contact, 0, len(result.Results))
	for _, r := range result.Results {
		contacts = append(contacts, &contact.Contact{
			OwnerID:   ownerID,
			RemoteID:  r.ID,
			Email:     r.Properties["email"],
			FirstName: r.Properties["firstname"],
			LastName:  r.Properties["lastname"],
			Company:   r.Properties["company"],
		})
	}
	return contacts, nil
}
