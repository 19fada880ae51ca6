package relay

import "github.com/zulandar/switchboard/internal/platform"

// ChunkContent splits content into ordered chunks of at most limit
// runes each. Rejoining the chunks in order reconstructs the input.
// Empty content yields a single empty chunk so callers always have one
// post to make.
func ChunkContent(content string, limit int) []string {
	if limit <= 0 {
		limit = platform.MaxMessageLength
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return []string{content}
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
