// ABOUTME: Unified Storage layer over the SQLite run store
// ABOUTME: Assigns run ids and combines keyword and embedding search over topic names
package sqlite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/models"
)

// Storage manages all persisted topic naming runs
type Storage struct {
	db       *DB
	runs     *RunStore
	embedder llm.Embedder
	logger   *log.Logger
	mu       sync.RWMutex
}

// NewStorage initializes storage at the default XDG path
func NewStorage() (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath())
}

// NewStorageWithPath initializes storage with a custom database path
func NewStorageWithPath(dbPath string) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db), nil
}

func newStorage(db *DB) *Storage {
	return &Storage{
		db:     db,
		runs:   NewRunStore(db),
		logger: log.Default(),
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Info reports the database path, schema version and stored totals
func (s *Storage) Info() (*Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Info()
}

// SetEmbedder enables embedding search over topic centroids
func (s *Storage) SetEmbedder(e llm.Embedder) {
	s.embedder = e
}

// SetLogger replaces the default logger
func (s *Storage) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SaveRun stores a run, assigning an id and timestamp when missing
func (s *Storage) SaveRun(run *models.Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if err := s.runs.Save(run); err != nil {
		return "", fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// ListRuns returns every stored run, newest first
func (s *Storage) ListRuns() ([]models.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.List()
}

// ResolveRunID returns id, or the newest run's id when id is empty or "latest"
func (s *Storage) ResolveRunID(id string) (string, error) {
	if id != "" && id != "latest" {
		return id, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest, err := s.runs.Latest()
	if err != nil {
		return "", err
	}
	if latest == "" {
		return "", fmt.Errorf("no runs stored")
	}
	return latest, nil
}

// GetRun loads a complete run, or nil when it does not exist
func (s *Storage) GetRun(id string) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.Get(id)
}

// DeleteRun removes a run
func (s *Storage) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs.Delete(id)
}

// LayerTopics lists the topics of one layer; a negative layer lists all
func (s *Storage) LayerTopics(runID string, layer int) ([]models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.Topics(runID, layer)
}

// GetTopic returns one topic with its evidence, or nil when it does not exist
func (s *Storage) GetTopic(runID string, layer, cluster int) (*models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.Topic(runID, layer, cluster)
}

// DocumentTopics returns the topic of a document on every layer
func (s *Storage) DocumentTopics(runID string, doc int) ([]models.DocumentTopic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.DocumentTopics(runID, doc)
}

// SearchTopics finds topics by name. When an embedder is set and a run is
// given, clusters whose centroid is close to the query embedding are merged in
// after the keyword matches.
func (s *Storage) SearchTopics(ctx context.Context, query, runID string, maxResults int) ([]models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// 1. Keyword-based search
	results, err := s.runs.Search(query, runID, maxResults)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	// 2. Semantic search (if an embedder is available)
	if s.embedder != nil && runID != "" && len(results) < maxResults {
		semantic, err := s.semanticSearch(ctx, query, runID, maxResults)
		if err != nil {
			s.logger.Warn("semantic search failed", "err", err)
		} else {
			seen := make(map[[2]int]bool, len(results))
			for _, t := range results {
				seen[[2]int{t.Layer, t.Cluster}] = true
			}
			for _, t := range semantic {
				if !seen[[2]int{t.Layer, t.Cluster}] {
					seen[[2]int{t.Layer, t.Cluster}] = true
					results = append(results, t)
				}
			}
		}
	}

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// semanticSearch embeds the query and ranks cluster centroids against it
func (s *Storage) semanticSearch(ctx context.Context, query, runID string, maxResults int) ([]models.Topic, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected one query embedding, got %d", len(vectors))
	}
	return s.runs.SimilarTopics(runID, vectors[0], maxResults)
}
