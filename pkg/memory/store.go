// Package memory stores findings across iterations so recurring issues
// can be recognized instead of re-reported as new.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// DefaultSimilarity is the cosine similarity above which two findings
// are treated as the same issue.
const DefaultSimilarity = 0.85

// Store is a per-topic vector store of previously seen findings.
type Store struct {
	mu    sync.Mutex
	db    *chromem.DB
	embed chromem.EmbeddingFunc
}

// NewStore opens a persistent finding store under dir. The embedding
// function is injectable; pass nil to use chromem's default.
func NewStore(dir string, embed chromem.EmbeddingFunc) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open finding store: %w", err)
	}

	return &Store{
		db:    db,
		embed: embed,
	}, nil
}

// NewMemoryStore creates a non-persistent store, primarily for tests.
func NewMemoryStore(embed chromem.EmbeddingFunc) *Store {
	return &Store{
		db:    chromem.NewDB(),
		embed: embed,
	}
}

// collection returns the per-topic collection.
func (s *Store) collection(topic string) (*chromem.Collection, error) {
	return s.db.GetOrCreateCollection("roast-"+topic, nil, s.embed)
}

// Remember stores a finding's text for a topic.
func (s *Store) Remember(ctx context.Context, topic, personaID, text string, iteration int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection(topic)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	doc := chromem.Document{
		ID:      uuid.NewString(),
		Content: text,
		Metadata: map[string]string{
			"persona":   personaID,
			"iteration": strconv.Itoa(iteration),
		},
	}

	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add finding: %w", err)
	}
	return nil
}

// Seen reports whether a similar finding was already stored for the
// topic. threshold <= 0 uses DefaultSimilarity.
func (s *Store) Seen(ctx context.Context, topic, text string, threshold float32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threshold <= 0 {
		threshold = DefaultSimilarity
	}

	col, err := s.collection(topic)
	if err != nil {
		return false, fmt.Errorf("get collection: %w", err)
	}

	if col.Count() == 0 {
		return false, nil
	}

	results, err := col.Query(ctx, text, 1, nil, nil)
	if err != nil {
		return false, fmt.Errorf("query findings: %w", err)
	}

	return len(results) > 0 && results[0].Similarity >= threshold, nil
}

// Count returns the number of stored findings for a topic.
func (s *Store) Count(topic string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.db.GetCollection("roast-"+topic, s.embed)
	if col == nil {
		return 0
	}
	return col.Count()
}

// Forget drops all stored findings for a topic.
func (s *Store) Forget(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection("roast-" + topic); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}
