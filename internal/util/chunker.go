package util

// ChunkText splits text into fixed-size rune chunks where consecutive
// chunks overlap by the configured amount. Chunks are exact substrings:
// concatenating the first chunk with every later chunk minus its leading
// overlap reconstructs the input. Empty input yields no chunks; input
// shorter than one chunk size yields exactly one.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := chunkSize - overlap
	out := make([]string, 0, (len(runes)+step-1)/step)
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
