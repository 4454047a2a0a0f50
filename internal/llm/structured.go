package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaField describes one field of the JSON object the model must return.
type SchemaField struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// PromptSpec defines a structured-generation request: a task, the rules the
// model must follow, the input payload, and the output schema.
type PromptSpec struct {
	Task   string
	Rules  []string
	Input  any
	Fields []SchemaField
}

// GenerateJSON runs one structured-generation call: it renders the spec
// into a prompt, invokes the client, extracts the JSON payload from the
// response, and unmarshals it into out.
//
// Every failure mode (no client, provider error, no JSON in the output,
// schema mismatch) comes back as a *CapabilityError so callers can fall
// through to their deterministic fallback.
func GenerateJSON(ctx context.Context, client Client, spec PromptSpec, out any) error {
	if client == nil {
		return capabilityErr(spec.Task, ErrUnavailable)
	}

	prompt, err := renderPrompt(spec)
	if err != nil {
		return fmt.Errorf("llm: render prompt: %w", err)
	}

	resp, err := client.Complete(ctx, &CompletionRequest{
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return capabilityErr(spec.Task, err)
	}

	raw, err := extractJSON(resp.Content)
	if err != nil {
		return capabilityErr(spec.Task, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return capabilityErr(spec.Task, fmt.Errorf("decode structured output: %w", err))
	}
	return nil
}

func renderPrompt(spec PromptSpec) (string, error) {
	if strings.TrimSpace(spec.Task) == "" {
		return "", fmt.Errorf("task is empty")
	}
	if len(spec.Fields) == 0 {
		return "", fmt.Errorf("output fields are empty")
	}

	inputJSON := "null"
	if spec.Input != nil {
		b, err := json.MarshalIndent(spec.Input, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode input: %w", err)
		}
		inputJSON = string(b)
	}

	var buf strings.Builder
	writeSection(&buf, "TASK", spec.Task)
	writeSection(&buf, "RULES", formatList(spec.Rules))
	writeSection(&buf, "INPUT", inputJSON)
	writeSection(&buf, "OUTPUT", formatFields(spec.Fields))
	writeSection(&buf, "OUTPUT_FORMAT", "Respond with a single JSON object matching OUTPUT. No markdown, no prose.")
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func formatFields(fields []SchemaField) string {
	var buf strings.Builder
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "- %s (%s, %s)\n", name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *strings.Builder, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

// extractJSON pulls the JSON value out of a model response, tolerating
// code fences and surrounding prose.
func extractJSON(content string) (json.RawMessage, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil, fmt.Errorf("empty response")
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON value in response")
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return nil, fmt.Errorf("unterminated JSON value in response")
	}

	raw := json.RawMessage(s[start : end+1])
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON in response")
	}
	return raw, nil
}
