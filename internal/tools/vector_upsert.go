package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// VectorUpsert stores a text in long-term memory.
type VectorUpsert struct {
	tc *Context
}

func NewVectorUpsert(tc *Context) *VectorUpsert {
	return &VectorUpsert{tc: tc}
}

func (t *VectorUpsert) Name() string { return "vector_upsert" }

func (t *VectorUpsert) Description() string {
	return "Store a piece of information in long-term memory so it can be recalled in future conversations. Use for facts, preferences, and decisions worth remembering."
}

func (t *VectorUpsert) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "The information to remember, phrased as a standalone statement",
			},
		},
		"required": []string{"text"},
	}
}

func (t *VectorUpsert) Execute(ctx context.Context, args string) (string, error) {
	var params struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return "", fmt.Errorf("text is required")
	}

	vecs, err := t.tc.Embed(ctx, []string{text})
	if err != nil {
		return "", fmt.Errorf("embed text: %w", err)
	}

	t.tc.Store.Add(text, vecs[0])
	if err := t.tc.Store.Save(); err != nil {
		return "", fmt.Errorf("save memory: %w", err)
	}

	return fmt.Sprintf("Stored in memory: %s", text), nil
}
