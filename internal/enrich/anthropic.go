// Remote enrichment via the Anthropic Messages API. The response must be a
// JSON object matching the enrichment schema; anything else counts as a
// failure and the caller falls back to local templates.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-haiku-4-5-20251001"
)

// responseSchema validates the collaborator's payload before it is trusted.
var responseSchema = jsonschema.MustCompileString("enrichment.schema.json", `{
	"type": "object",
	"required": ["dialogue", "internal_thought", "specific_actions", "reasoning", "expected_outcomes"],
	"properties": {
		"dialogue": {"type": "string", "minLength": 1},
		"internal_thought": {"type": "string"},
		"specific_actions": {"type": "array", "items": {"type": "string"}, "minItems": 1},
		"reasoning": {"type": "string"},
		"expected_outcomes": {
			"type": "object",
			"required": ["emotional_change", "relationship_impact"],
			"properties": {
				"emotional_change": {"type": "string"},
				"relationship_impact": {"type": "string"}
			}
		}
	}
}`)

// Client wraps the Anthropic Messages API for enrichment calls.
type Client struct {
	apiKey     string
	httpClient *http.Client

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient creates an enrichment API client. Returns nil if apiKey is empty
// (remote enrichment disabled).
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxPerMin:  20,
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type apiResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Enrich implements Enricher against the remote API.
func (c *Client) Enrich(ctx context.Context, req Request) (Enrichment, error) {
	if !c.Enabled() {
		return Enrichment{}, fmt.Errorf("enrichment client not configured")
	}

	raw, err := c.complete(ctx, systemPrompt, userPrompt(req), 1000)
	if err != nil {
		return Enrichment{}, err
	}

	return parseEnrichment(raw)
}

const systemPrompt = `You flavor actions for characters in a school-life sandbox simulation.
Given a character summary and a chosen action, respond ONLY with a JSON object:
{
  "dialogue": "a line the character would say",
  "internal_thought": "the character's inner voice",
  "specific_actions": ["concrete step 1", "concrete step 2"],
  "reasoning": "why this character chose this action",
  "expected_outcomes": {
    "emotional_change": "expected emotional shift",
    "relationship_impact": "expected effect on others"
  }
}
Stay in the character's voice. Do not add text outside the JSON object.`

func userPrompt(req Request) string {
	summary, _ := json.Marshal(map[string]any{
		"name":         req.CharacterName,
		"personality":  req.Personality,
		"current_mood": req.Mood,
		"energy":       req.Energy,
		"recent_goal":  req.CurrentGoal,
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Character %q is about to take the action %q.\n\n", req.CharacterName, req.ActionName)
	fmt.Fprintf(&b, "Character summary:\n%s\n\n", summary)
	fmt.Fprintf(&b, "Chosen action:\n- name: %s\n- description: %s\n", req.ActionName, req.ActionDescription)
	return b.String()
}

// parseEnrichment extracts the JSON object from the model's reply, validates
// it against the response schema, and decodes it. Schema violations are
// failures, not partial results.
func parseEnrichment(raw string) (Enrichment, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return Enrichment{}, fmt.Errorf("no JSON object in response")
	}
	jsonStr := raw[start : end+1]

	var decoded any
	if err := json.Unmarshal([]byte(jsonStr), &decoded); err != nil {
		return Enrichment{}, fmt.Errorf("parse response: %w", err)
	}
	if err := responseSchema.Validate(decoded); err != nil {
		return Enrichment{}, fmt.Errorf("response schema: %w", err)
	}

	var enr Enrichment
	if err := json.Unmarshal([]byte(jsonStr), &enr); err != nil {
		return Enrichment{}, fmt.Errorf("decode response: %w", err)
	}
	return enr, nil
}

// complete sends a prompt to the API and returns the response text.
func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	// Rate limiting.
	c.mu.Lock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		c.mu.Unlock()
		return "", fmt.Errorf("rate limit exceeded (%d calls/min)", c.maxPerMin)
	}
	c.callCount++
	c.mu.Unlock()

	body, err := json.Marshal(apiRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	slog.Debug("enrichment call",
		"input_tokens", apiResp.Usage.InputTokens,
		"output_tokens", apiResp.Usage.OutputTokens,
	)

	return apiResp.Content[0].Text, nil
}
