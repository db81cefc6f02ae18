// Package gmail provides the email tool adapter: remote sends through the
// Gmail API, local searches over the synced message archive, and the
// archive fallback scan for contact discovery.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/mail"
	"github.com/Strob0t/TaskForge/internal/domain/tool"
	"github.com/Strob0t/TaskForge/internal/port/credentials"
	"github.com/Strob0t/TaskForge/internal/port/database"
	"github.com/Strob0t/TaskForge/internal/resilience"
)

// archiveScanLimit bounds the number of archived messages examined by the
// contact fallback scan.
const archiveScanLimit = 500

// Client is the email tool adapter. Tool-facing methods never return an
// error; every failure is folded into the outcome.
type Client struct {
	apiBase    string
	httpClient *http.Client
	breaker    *resilience.Breaker
	creds      credentials.Source
	store      database.Store
	logger     *slog.Logger
}

// NewClient creates the email adapter.
func NewClient(apiBase string, creds credentials.Source, store database.Store, logger *slog.Logger) *Client {
	return &Client{
		apiBase: apiBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		creds:  creds,
		store:  store,
		logger: logger,
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SendEmail sends exactly one message through the Gmail API. The send is
// never retried; a transport failure surfaces as a failed outcome.
func (c *Client) SendEmail(ctx context.Context, ownerID string, args tool.SendEmailArgs) tool.Outcome {
	token, err := c.creds.Token(ctx, ownerID, credentials.ProviderGoogle)
	if err != nil {
		return tool.Fail(fmt.Sprintf("gmail not connected: %v", err))
	}

	raw := encodeMessage(args.To, args.Subject, args.Body)
	body, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return tool.Fail(fmt.Sprintf("encode message: %v", err))
	}

	var messageID string
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.apiBase+"/gmail/v1/users/me/messages/send", bytes.NewReader(body))
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
			return fmt.Errorf("gmail API error %d: %s", resp.StatusCode, string(data))
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		messageID = result.ID
		return nil
	}

	if err := c.execute(call); err != nil {
		c.logger.Warn("send email failed", "owner", ownerID, "to", args.To, "error", err)
		return tool.Fail(err.Error())
	}

	c.logger.Info("email sent", "owner", ownerID, "to", args.To, "message_id", messageID)
	return tool.OK(map[string]any{
		"message_id": messageID,
		"to":         args.To,
		"subject":    args.Subject,
	})
}

// SearchEmails searches the local message archive. An empty result set is
// a successful outcome.
func (c *Client) SearchEmails(ctx context.Context, ownerID string, args tool.SearchEmailsArgs) tool.Outcome {
	messages, err := c.store.SearchMessages(ctx, ownerID, args.Query, args.Limit)
	if err != nil {
		return tool.Fail(fmt.Sprintf("search emails: %v", err))
	}

	results := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		results = append(results, map[string]any{
			"id":      m.RemoteID,
			"subject": m.Subject,
			"sender":  m.Sender,
			"snippet": m.Snippet,
			"date":    m.SentAt.Format(time.RFC3339),
		})
	}

	return tool.OK(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// FindContactFromArchive scans archived messages for a person's name and
// extracts sender addresses. A scan with zero matches is still a successful
// outcome; only storage faults fail. The scan is read-only, so repeating it
// returns identical results.
func (c *Client) FindContactFromArchive(ctx context.Context, ownerID string, args tool.FindContactArgs) tool.Outcome {
	parts := strings.Fields(strings.ToLower(args.Name))
	if len(parts) == 0 {
		return tool.OK(map[string]any{"results": []map[string]any{}, "count": 0})
	}

	messages, err := c.store.ListMessages(ctx, ownerID, archiveScanLimit)
	if err != nil {
		return tool.Fail(fmt.Sprintf("scan archive: %v", err))
	}

	var candidates []map[string]any
	for _, m := range messages {
		senderLower := strings.ToLower(m.Sender)
		bodyLower := strings.ToLower(m.Body)

		matched := false
		for _, part := range parts {
			if strings.Contains(senderLower, part) || strings.Contains(bodyLower, part) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		name, email := mail.ParseSender(m.Sender)
		if name == "" {
			name = email
		}
		candidates = append(candidates, map[string]any{
			"name":         name,
			"email":        email,
			"source":       "gmail",
			"last_contact": m.SentAt.Format(time.RFC3339),
		})
	}

	total := len(candidates)
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	if candidates == nil {
		candidates = []map[string]any{}
	}

	c.logger.Info("archive contact scan", "owner", ownerID, "name", args.Name, "matches", total)
	return tool.OK(map[string]any{
		"results": candidates,
		"count":   total,
	})
}

func (c *Client) execute(call func() error) error {
	if c.breaker != nil {
		return c.breaker.Execute(call)
	}
	return call()
}

// encodeMessage builds a minimal RFC 822 message and encodes it the way the
// Gmail API expects (URL-safe base64).
func encodeMessage(to, subject, body string) string {
	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}
