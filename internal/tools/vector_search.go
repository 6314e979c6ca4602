package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// VectorSearch recalls stored memories similar to a query.
type VectorSearch struct {
	tc *Context
}

func NewVectorSearch(tc *Context) *VectorSearch {
	return &VectorSearch{tc: tc}
}

func (t *VectorSearch) Name() string { return "vector_search" }

func (t *VectorSearch) Description() string {
	return "Search long-term memory for information relevant to a query. Returns the most similar stored entries."
}

func (t *VectorSearch) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "What to look for in memory",
			},
			"top_k": map[string]interface{}{
				"type":        "integer",
				"description": "How many results to return (default 3)",
			},
		},
		"required": []string{"query"},
	}
}

func (t *VectorSearch) Execute(ctx context.Context, args string) (string, error) {
	var params struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	topK := params.TopK
	if topK < 1 {
		topK = 3
	}

	vecs, err := t.tc.Embed(ctx, []string{query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	results := t.tc.Store.Search(vecs[0], topK)
	if len(results) == 0 {
		return "No relevant memories found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant memories:\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. (%.3f) %s\n", i+1, r.Score, r.Text)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
