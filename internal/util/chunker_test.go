package util

import (
	"strings"
	"testing"
)

func reassemble(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		r := []rune(c)
		if i > 0 {
			r = r[overlap:]
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func TestChunkTextRoundTrip(t *testing.T) {
	cases := []struct {
		text    string
		size    int
		overlap int
	}{
		{"abcdefghijklmnopqrstuvwxyz", 10, 2},
		{"abcdefghijklmnopqrstuvwxyz", 5, 4},
		{strings.Repeat("net income rose 12% in Q4. ", 200), 1000, 150},
		{"héllo wörld — ünïcode tèxt über ällés", 7, 3},
		{"exactly-ten", 11, 5},
	}
	for _, c := range cases {
		chunks := ChunkText(c.text, c.size, c.overlap)
		if got := reassemble(chunks, c.overlap); got != c.text {
			t.Fatalf("round trip failed for size=%d overlap=%d: got %q", c.size, c.overlap, got)
		}
		for i, ch := range chunks {
			if ch == "" {
				t.Fatalf("empty chunk at index %d", i)
			}
			if n := len([]rune(ch)); n > c.size {
				t.Fatalf("chunk %d exceeds size: %d > %d", i, n, c.size)
			}
		}
	}
}

func TestChunkTextEdgeCases(t *testing.T) {
	if got := ChunkText("", 10, 2); len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %d", len(got))
	}
	got := ChunkText("short", 100, 10)
	if len(got) != 1 || got[0] != "short" {
		t.Fatalf("expected single chunk for short text, got %v", got)
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	text := strings.Repeat("total revenue for fiscal 2024 ", 50)
	a := ChunkText(text, 120, 30)
	b := ChunkText(text, 120, 30)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkTextOverlap(t *testing.T) {
	chunks := ChunkText("abcdefghijklmnopqrstuvwxyz", 10, 2)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != "abcdefghij" {
		t.Fatalf("unexpected first chunk: %s", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "ij") {
		t.Fatalf("second chunk does not start with overlap: %s", chunks[1])
	}
}
