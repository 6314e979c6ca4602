package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessageShortPassthrough(t *testing.T) {
	chunks := splitMessage("hello", maxMessageLen)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("got %v", chunks)
	}
}

func TestSplitMessageEmpty(t *testing.T) {
	if chunks := splitMessage("", maxMessageLen); chunks != nil {
		t.Errorf("expected no chunks, got %v", chunks)
	}
}

func TestSplitMessageExactBoundary(t *testing.T) {
	text := strings.Repeat("a", maxMessageLen)
	chunks := splitMessage(text, maxMessageLen)
	if len(chunks) != 1 {
		t.Errorf("exactly 4096 scalars should stay one chunk, got %d", len(chunks))
	}

	chunks = splitMessage(text+"b", maxMessageLen)
	if len(chunks) != 2 || chunks[1] != "b" {
		t.Errorf("4097 scalars should split 4096+1, got %d chunks", len(chunks))
	}
}

func TestSplitMessageNeverBreaksCodepoints(t *testing.T) {
	// Multi-byte scalars around every boundary.
	text := strings.Repeat("é漢🎉", 3000)
	chunks := splitMessage(text, maxMessageLen)

	var rebuilt strings.Builder
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8", i)
		}
		if n := len([]rune(c)); n > maxMessageLen {
			t.Fatalf("chunk %d has %d scalars, limit %d", i, n, maxMessageLen)
		}
		rebuilt.WriteString(c)
	}
	if rebuilt.String() != text {
		t.Error("chunks do not reassemble the original text")
	}
}

func TestSplitMessageOrder(t *testing.T) {
	chunks := splitMessage("abcdef", 2)
	want := []string{"ab", "cd", "ef"}
	if len(chunks) != len(want) {
		t.Fatalf("got %v", chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}
