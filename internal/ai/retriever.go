package ai

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed knowledge/*.md
var defaultKnowledge embed.FS

const (
	ChunkSize    = 1000
	ChunkOverlap = 200
	// DefaultTopK is how many chunks go into an answer prompt.
	DefaultTopK = 3
)

// Chunk is one retrievable slice of a knowledge document.
type Chunk struct {
	Source string
	Text   string
}

// LoadKnowledge reads every .md and .txt file under dir, or the built-in
// documents when dir is empty, and splits them into chunks.
func LoadKnowledge(dir string) ([]Chunk, error) {
	var fsys fs.FS = defaultKnowledge
	root := "knowledge"
	if dir != "" {
		fsys = os.DirFS(dir)
		root = "."
	}

	var chunks []Chunk
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(path.Ext(p))
		if d.IsDir() || (ext != ".md" && ext != ".txt") {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		chunks = append(chunks, SplitDocument(path.Base(p), string(raw), ChunkSize, ChunkOverlap)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}
	return chunks, nil
}

// SplitDocument cuts text into pieces of at most size runes that overlap by
// overlap runes, preferring to cut on paragraph, line or word breaks. Each
// chunk is prefixed with its source name.
func SplitDocument(source, text string, size, overlap int) []Chunk {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if overlap >= size {
		overlap = size / 5
	}
	prefix := "Source: " + source + "\n"

	var out []Chunk
	for start := 0; start < len(runes); {
		end := min(start+size, len(runes))
		if end < len(runes) {
			end = breakPoint(runes, start, end)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, Chunk{Source: source, Text: prefix + piece})
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// breakPoint moves end back to the last paragraph, line or space break in the
// second half of the window.
func breakPoint(runes []rune, start, end int) int {
	floor := start + (end-start)/2
	for _, sep := range []string{"\n\n", "\n", " "} {
		s := []rune(sep)
		for i := end - len(s); i > floor; i-- {
			if string(runes[i:i+len(s)]) == sep {
				return i + len(s)
			}
		}
	}
	return end
}

// Retriever ranks chunks by cosine similarity of their embeddings to the query.
type Retriever struct {
	embedder Embedder
	chunks   []Chunk
	vectors  [][]float32
}

// NewRetriever embeds every chunk once up front.
func NewRetriever(ctx context.Context, embedder Embedder, chunks []Chunk) (*Retriever, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	var vectors [][]float32
	if len(texts) > 0 {
		v, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("index knowledge: %w", err)
		}
		if len(v) != len(chunks) {
			return nil, fmt.Errorf("index knowledge: got %d vectors for %d chunks", len(v), len(chunks))
		}
		vectors = v
	}
	return &Retriever{embedder: embedder, chunks: chunks, vectors: vectors}, nil
}

func (r *Retriever) Len() int {
	return len(r.chunks)
}

// Search returns up to k chunks, best match first.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Chunk, error) {
	if len(r.chunks) == 0 || k <= 0 {
		return nil, nil
	}
	qv, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(qv))
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(r.chunks))
	for i, v := range r.vectors {
		ranked[i] = scored{idx: i, score: cosine(qv[0], v)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	k = min(k, len(ranked))
	out := make([]Chunk, 0, k)
	for _, s := range ranked[:k] {
		out = append(out, r.chunks[s.idx])
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
