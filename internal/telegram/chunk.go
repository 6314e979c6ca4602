package telegram

// maxMessageLen is Telegram's per-message limit in Unicode scalars.
const maxMessageLen = 4096

// splitMessage splits text into chunks of at most limit Unicode scalars.
// Boundaries fall between codepoints, never inside one. Chunks come back
// in order; empty input yields no chunks.
func splitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		limit = maxMessageLen
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
