package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/mail"
	"github.com/Strob0t/TaskForge/internal/port/credentials"
)

// ListRemoteMessages fetches up to max recent messages from the Gmail API
// for the sync service. Unlike the tool methods this returns an error: sync
// callers handle faults themselves.
func (c *Client) ListRemoteMessages(ctx context.Context, ownerID string, max int) ([]*mail.Message, error) {
	token, err := c.creds.Token(ctx, ownerID, credentials.ProviderGoogle)
	if err != nil {
		return nil, fmt.Errorf("gmail credentials: %w", err)
	}

	listURL := fmt.Sprintf("%s/gmail/v1/users/me/messages?maxResults=%d", c.apiBase, max)
	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := c.getJSON(ctx, token, listURL, &list); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]*mail.Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := c.fetchMessage(ctx, token, ownerID, ref.ID)
		if err != nil {
			c.logger.Warn("fetch message failed", "owner", ownerID, "remote_id", ref.ID, "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (c *Client) fetchMessage(ctx context.Context, token, ownerID, remoteID string) (*mail.Message, error) {
	var msg struct {
		ID           string `json:"id"`
		Snippet      string `json:"snippet"`
		InternalDate string `json:"internalDate"`
		Payload      struct {
			Headers []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"headers"`
			Body struct {
				Data string `json:"data"`
			} `json:"body"`
		} `json:"payload"`
	}

	url := fmt.Sprintf("%s/gmail/v1/users/me/messages/%s?format=full", c.apiBase, remoteID)
	if err := c.getJSON(ctx, token, url, &msg); err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(msg.Payload.Headers))
	for _, h := range msg.Payload.Headers {
		headers[h.Name] = h.Value
	}

	sentAt := time.Now().UTC()
	if ms, err := strconv.ParseInt(msg.InternalDate, 10, 64); err == nil && ms > 0 {
		sentAt = time.UnixMilli(ms).UTC()
	}

	body := decodeBody(msg.Payload.Body.Data)
	if body == "" {
		body = msg.Snippet
	}

	return &mail.Message{
		OwnerID:   ownerID,
		RemoteID:  msg.ID,
		Sender:    headers["From"],
		Recipient: headers["To"],
		Subject:   headers["Subject"],
		Body:      body,
		Snippet:   msg.Snippet,
		SentAt:    sentAt,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, token, url string, out any) error {
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
			return fmt.Errorf("gmail API error %d: %s", resp.StatusCode, string(data))
		}
		return json.Unmarshal(data, out)
	}
	return c.execute(call)
}

// decodeBody decodes the Gmail API's URL-safe base64 body encoding.
func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64URLDecode(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// The API emits unpadded URL-safe base64; padded input is tolerated.
func base64URLDecode(data string) ([]byte, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return decoded, nil
	}
	return base64.URLEncoding.DecodeString(data)
}
