package vectorstore

import "ragchat/internal/domain"

// Entry is an embedding paired with the segment it was computed from.
type Entry struct {
	Embedding domain.Embedding
	Segment   domain.Segment
}

// Storage holds embeddings and answers nearest-neighbor queries.
type Storage interface {
	Init(dimension int) error
	InsertAll(entries []Entry) error
	Query(vector domain.Embedding, topK int) ([]domain.ScoredSegment, error)
	Clear() error
	Len() int
	Dimension() int
}
