package presenter

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Comment is one notice on the review system.
type Comment struct {
	ID   int64
	Body string
}

// NoticeStore is the review-system surface the presenter publishes through.
type NoticeStore interface {
	ListComments(ctx context.Context, number int) ([]Comment, error)
	CreateComment(ctx context.Context, number int, body string) error
	UpdateComment(ctx context.Context, id int64, body string) error
	AddLabel(ctx context.Context, number int, label string) error
}

// Upsert replaces the first comment on number whose body contains marker, or
// creates a new comment when none does. It reports whether a comment was replaced.
func Upsert(ctx context.Context, store NoticeStore, number int, marker, body string) (bool, error) {
	comments, err := store.ListComments(ctx, number)
	if err != nil {
		return false, err
	}

	for _, c := range comments {
		if strings.Contains(c.Body, marker) {
			return true, store.UpdateComment(ctx, c.ID, body)
		}
	}

	return false, store.CreateComment(ctx, number, body)
}

// MemoryStore is an in-process NoticeStore. It backs dry runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int][]Comment
	labels   map[int][]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		comments: make(map[int][]Comment),
		labels:   make(map[int][]string),
	}
}

// ListComments returns the comments on number in creation order.
func (s *MemoryStore) ListComments(ctx context.Context, number int) ([]Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Comment(nil), s.comments[number]...), nil
}

// CreateComment appends a comment to number.
func (s *MemoryStore) CreateComment(ctx context.Context, number int, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[number] = append(s.comments[number], Comment{ID: s.nextID, Body: body})
	s.nextID++
	return nil
}

// UpdateComment replaces the body of comment id. Unknown ids are ignored.
func (s *MemoryStore) UpdateComment(ctx context.Context, id int64, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for number, comments := range s.comments {
		for i := range comments {
			if comments[i].ID == id {
				s.comments[number][i].Body = body
				return nil
			}
		}
	}
	return nil
}

// AddLabel records label on number once.
func (s *MemoryStore) AddLabel(ctx context.Context, number int, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.labels[number] {
		if l == label {
			return nil
		}
	}
	s.labels[number] = append(s.labels[number], label)
	return nil
}

// Labels returns the labels on number, sorted.
func (s *MemoryStore) Labels(number int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.labels[number]...)
	sort.Strings(out)
	return out
}
