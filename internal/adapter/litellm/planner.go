package litellm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/Strob0t/TaskForge/internal/port/planner"
)

// Planner implements planner.Planner by asking the LiteLLM proxy for tool
// calls against the exported catalog.
type Planner struct {
	client    *Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewPlanner creates a planner using the given client and model.
func NewPlanner(client *Client, model string, maxTokens int, logger *slog.Logger) *Planner {
	return &Planner{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Plan runs one planning pass. Returned proposals are untrusted: names and
// arguments come straight from the model and are validated by the caller.
func (p *Planner) Plan(ctx context.Context, req planner.Request) ([]planner.Proposal, error) {
	tools := make([]Tool, 0, len(req.Tools))
	names := make([]string, 0, len(req.Tools))
	for _, def := range req.Tools {
		tools = append(tools, Tool{
			Type: "function",
			Function: Function{
				Name:        string(def.Name),
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
		names = append(names, string(def.Name))
	}

	creq := ChatCompletionRequest{
		Model: p.model,
		Messages: []Message{
			{Role: "system", Content: p.buildSystemPrompt(req, names)},
			{Role: "user", Content: "Please complete this task: " + sanitizePromptInput(req.Description)},
		},
		Tools:     tools,
		MaxTokens: p.maxTokens,
	}
	if req.RequireToolCall {
		creq.ToolChoice = "required"
	}

	msg, err := p.client.ChatCompletion(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	proposals := make([]planner.Proposal, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				p.logger.Warn("planner returned unparsable arguments",
					"tool", tc.Function.Name, "error", err)
				continue
			}
		}
		proposals = append(proposals, planner.Proposal{
			Tool:      tc.Function.Name,
			Arguments: args,
		})
	}

	p.logger.Info("planning pass complete",
		"proposals", len(proposals), "model", p.model)
	return proposals, nil
}

func (p *Planner) buildSystemPrompt(req planner.Request, toolNames []string) string {
	var b strings.Builder
	b.WriteString("You are an assistant that helps with tasks involving email, calendar, and CRM contacts.\n\n")
	b.WriteString("Task: ")
	b.WriteString(sanitizePromptInput(req.Description))
	b.WriteString("\n\n")

	if len(req.Instructions) > 0 {
		b.WriteString("Standing instructions from the user:\n")
		for _, ins := range req.Instructions {
			b.WriteString("- ")
			b.WriteString(sanitizePromptInput(ins))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(req.Snippets) > 0 {
		b.WriteString("Possibly relevant context:\n")
		for _, sn := range req.Snippets {
			b.WriteString("- ")
			b.WriteString(sanitizePromptInput(sn))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("You MUST use the available tools to complete this task. For appointment scheduling:\n")
	b.WriteString("1. ALWAYS start by calling search_contacts with the person's name\n")
	b.WriteString("2. If that fails, ALWAYS call find_contact_from_archive with the person's name\n")
	b.WriteString("3. If you find contact info, ALWAYS call send_email to request the appointment\n\n")
	b.WriteString("Available tools: ")
	b.WriteString(strings.Join(toolNames, ", "))
	b.WriteString("\n\nYou must call at least one tool. Do not just provide a text response.")
	return b.String()
}

// sanitizePromptInput strips control characters, neutralizes role markers
// that could be abused for prompt injection, and bounds the input length.
func sanitizePromptInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(strings.ToLower(line))
		for _, prefix := range []string{
			"system:", "assistant:", "user:", "[system]", "[assistant]",
			"<|system|>", "<|assistant|>", "<|im_start|>",
			"### system", "### assistant", "### instruction",
		} {
			if strings.HasPrefix(trimmed, prefix) {
				lines[i] = "[sanitized] " + line
				break
			}
		}
	}
	s = strings.Join(lines, "\n")

	const maxInputLen = 10000
	if len(s) > maxInputLen {
		s = s[:maxInputLen] + "\n[truncated]"
	}
	return s
}
