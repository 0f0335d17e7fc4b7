package memory

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/vectorstore"
)

type record struct {
	id        string
	embedding domain.Embedding
	norm      float64
	segment   domain.Segment
}

// Storage is an in-memory vector store using brute-force cosine similarity.
// Scores are max(0, cosine), so 1 means identical direction and 0 means orthogonal or opposed.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	records   []record
	logger    *zap.Logger
}

// NewStorage creates an empty store. The dimension is fixed by Init or by the first insert.
func NewStorage(logger *zap.Logger) *Storage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{logger: logger}
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.records = nil
	return nil
}

// InsertAll appends entries atomically: if any entry has the wrong dimension nothing is stored.
func (s *Storage) InsertAll(entries []vectorstore.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	if dim == 0 {
		dim = len(entries[0].Embedding)
		if dim == 0 {
			return errors.New("invalid dimension")
		}
	}
	batch := make([]record, 0, len(entries))
	for i, e := range entries {
		if len(e.Embedding) != dim {
			return fmt.Errorf("entry %d: %w: got %d, want %d", i, domain.ErrDimensionMismatch, len(e.Embedding), dim)
		}
		batch = append(batch, record{
			id:        uuid.NewString(),
			embedding: e.Embedding,
			norm:      norm(e.Embedding),
			segment:   e.Segment,
		})
	}
	s.dimension = dim
	s.records = append(s.records, batch...)
	s.logger.Debug("entries inserted", zap.Int("count", len(batch)), zap.Int("total", len(s.records)))
	return nil
}

// Query returns up to topK segments ordered by descending score. Equal scores keep insertion order.
func (s *Storage) Query(vector domain.Embedding, topK int) ([]domain.ScoredSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return []domain.ScoredSegment{}, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	qn := norm(vector)
	results := make([]domain.ScoredSegment, len(s.records))
	for i, r := range s.records {
		results[i] = domain.ScoredSegment{Segment: r.segment, Score: relevance(dot(r.embedding, vector), r.norm, qn)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Storage) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// relevance maps cosine similarity into [0,1]. Zero vectors relate to nothing.
func relevance(dotProduct, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	c := dotProduct / (na * nb)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func dot(a, b domain.Embedding) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v domain.Embedding) float64 {
	return math.Sqrt(dot(v, v))
}
