package memory

import (
	"context"
	"math"
	"testing"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder()
	ctx := context.Background()

	first, err := e.Embed(ctx, []string{"the quick brown fox"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := e.Embed(ctx, []string{"the quick brown fox"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 vector each, got %d and %d", len(first), len(second))
	}
	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Fatalf("vectors differ at index %d: %v vs %v", i, first[0][i], second[0][i])
		}
	}
}

func TestLocalEmbedderUnitNorm(t *testing.T) {
	e := NewLocalEmbedder()

	tests := []string{
		"hello world",
		"a",
		"",
		"repeated repeated repeated repeated",
		"unicode héllo wörld ありがとう",
	}
	for _, text := range tests {
		vecs, err := e.Embed(context.Background(), []string{text})
		if err != nil {
			t.Fatalf("Embed(%q): %v", text, err)
		}

		var sum float64
		for _, x := range vecs[0] {
			sum += float64(x) * float64(x)
		}
		norm := math.Sqrt(sum)
		if math.Abs(norm-1.0) > 1e-5 {
			t.Errorf("Embed(%q): norm = %v, want 1.0", text, norm)
		}
	}
}

func TestLocalEmbedderSimilarTextsScoreHigher(t *testing.T) {
	e := NewLocalEmbedder()
	ctx := context.Background()

	vecs, err := e.Embed(ctx, []string{
		"the cat sat on the mat",
		"the cat sat on a rug",
		"quantum chromodynamics lattice simulation",
	})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	similar := cosine(vecs[0], vecs[1])
	unrelated := cosine(vecs[0], vecs[2])
	if similar <= unrelated {
		t.Errorf("similar pair scored %v, unrelated pair %v; want similar > unrelated", similar, unrelated)
	}
}
