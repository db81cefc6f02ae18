// Package gcal provides the calendar tool adapter: remote event creation
// through the Google Calendar API and local searches over the event mirror.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/TaskForge/internal/domain/calendar"
	"github.com/Strob0t/TaskForge/internal/domain/tool"
	"github.com/Strob0t/TaskForge/internal/port/credentials"
	"github.com/Strob0t/TaskForge/internal/port/database"
	"github.com/Strob0t/TaskForge/internal/resilience"
)

// Client is the calendar tool adapter. Tool-facing methods never return an
// error; every failure is folded into the outcome.
type Client struct {
	apiBase    string
	httpClient *http.Client
	breaker    *resilience.Breaker
	creds      credentials.Source
	store      database.Store
	logger     *slog.Logger
}

// NewClient creates the calendar adapter.
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

// CreateEvent creates an event remotely and mirrors it locally. A mirror
// write failure after a successful remote create is logged, not surfaced:
// the remote event exists and the outcome reflects that.
func (c *Client) CreateEvent(ctx context.Context, ownerID string, args tool.CreateEventArgs) tool.Outcome {
	token, err := c.creds.Token(ctx, ownerID, credentials.ProviderGoogle)
	if err != nil {
		return tool.Fail(fmt.Sprintf("calendar not connected: %v", err))
	}

	start, err := time.Parse(time.RFC3339, args.StartTime)
	if err != nil {
		return tool.Fail(fmt.Sprintf("invalid start_time: %v", err))
	}
	end, err := time.Parse(time.RFC3339, args.EndTime)
	if err != nil {
		return tool.Fail(fmt.Sprintf("invalid end_time: %v", err))
	}

	attendees := make([]map[string]string, 0, len(args.Attendees))
	for _, email := range args.Attendees {
		attendees = append(attendees, map[string]string{"email": email})
	}
	payload := map[string]any{
		"summary": args.Title,
		"start":   map[string]string{"dateTime": args.StartTime, "timeZone": "UTC"},
		"end":     map[string]string{"dateTime": args.EndTime, "timeZone": "UTC"},
	}
	if len(attendees) > 0 {
		payload["attendees"] = attendees
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return tool.Fail(fmt.Sprintf("encode event: %v", err))
	}

	var remoteID string
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.apiBase+"/calendar/v3/calendars/primary/events", bytes.NewReader(body))
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
			return fmt.Errorf("calendar API error %d: %s", resp.StatusCode, string(data))
		}

		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		remoteID = result.ID
		return nil
	}

	if err := c.execute(call); err != nil {
		c.logger.Warn("create event failed", "owner", ownerID, "title", args.Title, "error", err)
		return tool.Fail(err.Error())
	}

	ev := &calendar.Event{
		OwnerID:   ownerID,
		RemoteID:  remoteID,
		Title:     args.Title,
		StartTime: start,
		EndTime:   end,
		Attendees: args.Attendees,
	}
	if err := c.store.InsertEvent(ctx, ev); err != nil {
		c.logger.Warn("event mirror write failed", "owner", ownerID, "remote_id", remoteID, "error", err)
	}

	c.logger.Info("calendar event created", "owner", ownerID, "event_id", remoteID)
	return tool.OK(map[string]any{
		"event_id":   remoteID,
		"title":      args.Title,
		"start_time": args.StartTime,
		"end_time":   args.EndTime,
		"attendees":  args.Attendees,
	})
}

// SearchEvents searches the local event mirror. An empty result set is a
// successful outcome.
func (c *Client) SearchEvents(ctx context.Context, ownerID string, args tool.SearchCalendarArgs) tool.Outcome {
	var start, end time.Time
	if args.StartDate != "" {
		t, err := time.Parse(time.RFC3339, args.StartDate)
		if err != nil {
			return tool.Fail(fmt.Sprintf("invalid start_date: %v", err))
		}
		start = t
	}
	if args.EndDate != "" {
		t, err := time.Parse(time.RFC3339, args.EndDate)
		if err != nil {
			return tool.Fail(fmt.Sprintf("invalid end_date: %v", err))
		}
		end = t
	}

	events, err := c.store.SearchEvents(ctx, ownerID, args.Query, start, end)
	if err != nil {
		return tool.Fail(fmt.Sprintf("search events: %v", err))
	}

	results := make([]map[string]any, 0, len(events))
	for _, e := range events {
		results = append(results, map[string]any{
			"id":         e.ID,
			"title":      e.Title,
			"start_time": e.StartTime.Format(time.RFC3339),
			"end_time":   e.EndTime.Format(time.RFC3339),
			"attendees":  e.Attendees,
		})
	}

	return tool.OK(map[string]any{
		"results": results,
		"count":   len(results),
	})
}

func (c *Client) execute(call func() error) error {
	if c.breaker != nil {
		return c.breaker.Execute(call)
	}
	return call()
}
