package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Dimension is the embedding width shared by the local embedder and every
// entry in a vector store.
const Dimension = 256

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	// Embed generates one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the embedder identifier.
	Name() string
}

// LocalEmbedder is a deterministic, offline embedder. Tokens and character
// trigrams are hashed (FNV-1a) into a fixed number of buckets with a
// hash-derived sign, then the vector is L2-normalized. Identical inputs
// always produce identical unit vectors; no network is involved.
type LocalEmbedder struct{}

func NewLocalEmbedder() *LocalEmbedder { return &LocalEmbedder{} }

func (e *LocalEmbedder) Name() string { return "local" }

func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = embedText(t)
	}
	return vectors, nil
}

func embedText(text string) []float32 {
	v := make([]float32, Dimension)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		bump(v, token, 1.0)

		// Character trigrams catch partial-word overlap.
		runes := []rune(token)
		for i := 0; i+3 <= len(runes); i++ {
			bump(v, string(runes[i:i+3]), 0.5)
		}
	}

	normalize(v)
	return v
}

func bump(v []float32, feature string, weight float32) {
	h := fnv.New32a()
	h.Write([]byte(feature))
	sum := h.Sum32()

	idx := sum % Dimension
	if sum&0x80000000 != 0 {
		weight = -weight
	}
	v[idx] += weight
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		v[0] = 1
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// RemoteEmbedder fans out to an OpenAI-compatible /embeddings endpoint.
// Used when the configured embedding model is not "local".
type RemoteEmbedder struct {
	model   string
	apiKey  string
	apiBase string
	client  *http.Client
}

func NewRemoteEmbedder(model, apiKey, apiBase string) *RemoteEmbedder {
	if apiBase == "" {
		apiBase = "https://api.openai.com/v1"
	}
	return &RemoteEmbedder{
		model:   model,
		apiKey:  apiKey,
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *RemoteEmbedder) Name() string { return e.model }

func (e *RemoteEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model": e.model,
		"input": texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.apiBase+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embeddings: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings: HTTP %d: %s", resp.StatusCode, respBody)
	}

	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embeddings: decode response: %w", err)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embeddings: missing vector for input %d", i)
		}
	}
	return vectors, nil
}
