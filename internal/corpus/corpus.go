// ABOUTME: Loads a document corpus with optional embeddings and 2-D layout coordinates
// ABOUTME: Reads JSONL records or plain text lines; missing vectors and locations are derived
package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/vecmath"
)

// DefaultLayoutDims is the dimension of derived locations.
const DefaultLayoutDims = 2

// maxLineBytes bounds one JSONL record, vectors included.
const maxLineBytes = 64 << 20

// Record is one JSONL line. Vector and Location are optional but must be
// present on every record or on none.
type Record struct {
	Text     string    `json:"text"`
	Vector   []float64 `json:"vector,omitempty"`
	Location []float64 `json:"location,omitempty"`
}

// Corpus is the documents plus whatever vectors came with them.
type Corpus struct {
	Documents []string
	Vectors   [][]float64
	Locations [][]float64
}

// ReadFile loads path. Files ending in .txt hold one document per line;
// everything else is read as JSONL.
func ReadFile(path string) (*Corpus, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return ReadLines(f)
	}
	return ReadJSONL(f)
}

// ReadLines reads one document per non-blank line.
func ReadLines(r io.Reader) (*Corpus, error) {
	c := &Corpus{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			c.Documents = append(c.Documents, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	if len(c.Documents) == 0 {
		return nil, fmt.Errorf("%w: corpus is empty", models.ErrConfiguration)
	}
	return c, nil
}

// ReadJSONL reads Records, one per non-blank line.
func ReadJSONL(r io.Reader) (*Corpus, error) {
	c := &Corpus{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", models.ErrConfiguration, line, err)
		}
		if err := c.add(rec, line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	if len(c.Documents) == 0 {
		return nil, fmt.Errorf("%w: corpus is empty", models.ErrConfiguration)
	}
	return c, nil
}

func (c *Corpus) add(rec Record, line int) error {
	first := len(c.Documents) == 0
	if !first && (rec.Vector == nil) != (c.Vectors == nil) {
		return fmt.Errorf("%w: line %d: vectors must be given for every document or none", models.ErrConfiguration, line)
	}
	if !first && (rec.Location == nil) != (c.Locations == nil) {
		return fmt.Errorf("%w: line %d: locations must be given for every document or none", models.ErrConfiguration, line)
	}
	if rec.Vector != nil {
		if !first && len(rec.Vector) != len(c.Vectors[0]) {
			return fmt.Errorf("%w: line %d: vector has %d dimensions, want %d", models.ErrConfiguration, line, len(rec.Vector), len(c.Vectors[0]))
		}
		c.Vectors = append(c.Vectors, rec.Vector)
	}
	if rec.Location != nil {
		if !first && len(rec.Location) != len(c.Locations[0]) {
			return fmt.Errorf("%w: line %d: location has %d dimensions, want %d", models.ErrConfiguration, line, len(rec.Location), len(c.Locations[0]))
		}
		c.Locations = append(c.Locations, rec.Location)
	}
	c.Documents = append(c.Documents, rec.Text)
	return nil
}

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.Documents) }

// Embed fills in missing document vectors through emb.
func (c *Corpus) Embed(ctx context.Context, emb llm.Embedder) error {
	if c.Vectors != nil {
		return nil
	}
	vectors, err := emb.Embed(ctx, c.Documents)
	if err != nil {
		return fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(c.Documents) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(c.Documents))
	}
	c.Vectors = vectors
	return nil
}

// Layout fills in missing locations by projecting the centered document
// vectors onto their leading dims singular vectors.
func (c *Corpus) Layout(dims int) error {
	if c.Locations != nil {
		return nil
	}
	if c.Vectors == nil {
		return fmt.Errorf("%w: locations need document vectors", models.ErrConfiguration)
	}
	if dims < 1 {
		return fmt.Errorf("%w: layout dimension must be positive, got %d", models.ErrConfiguration, dims)
	}
	centered := vecmath.Center(c.Vectors)
	comp, err := vecmath.TruncatedSVD(centered, dims)
	if err != nil {
		return fmt.Errorf("deriving locations: %w", err)
	}
	c.Locations = comp.Project(centered)
	return nil
}
