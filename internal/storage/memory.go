package storage

import (
	"errors"
	"sort"
	"sync"
	"time"

	"docstructgo/internal/models"
)

// ErrNotFound is returned when a conversion id is absent from the store.
var ErrNotFound = errors.New("conversion not found")

// ConversionUpdate is a partial update; nil fields are left untouched.
type ConversionUpdate struct {
	Status         *models.ConversionStatus
	JSONOutput     *models.StructuredOutput
	ErrorMessage   *string
	ProcessingTime *int
	Confidence     *string
	OutputFilePath *string
	CompletedAt    *time.Time
}

// MemoryStore keeps conversion records in process memory. All data is lost
// on restart; that is an accepted property of the service, not a bug.
type MemoryStore struct {
	mu          sync.RWMutex
	conversions map[int64]*models.Conversion
	order       []int64
	nextID      int64
}

// NewMemoryStore constructs an empty store. Identifiers start at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversions: make(map[int64]*models.Conversion),
		nextID:      1,
	}
}

// Create assigns the next identifier, stamps createdAt and stores the record.
// A zero status defaults to pending.
func (s *MemoryStore) Create(conv models.Conversion) *models.Conversion {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv.ID = s.nextID
	s.nextID++
	if conv.Status == "" {
		conv.Status = models.StatusPending
	}
	conv.CreatedAt = time.Now().UTC()
	conv.CompletedAt = nil

	s.conversions[conv.ID] = &conv
	s.order = append(s.order, conv.ID)

	clone := conv
	return &clone
}

// Get returns the conversion for an identifier, or ErrNotFound.
func (s *MemoryStore) Get(id int64) (*models.Conversion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversions[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *conv
	return &clone, nil
}

// Update merges a partial update into an existing record and returns the
// result. Absent identifiers yield ErrNotFound.
func (s *MemoryStore) Update(id int64, upd ConversionUpdate) (*models.Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Status != nil {
		conv.Status = *upd.Status
	}
	if upd.JSONOutput != nil {
		conv.JSONOutput = upd.JSONOutput
	}
	if upd.ErrorMessage != nil {
		conv.ErrorMessage = upd.ErrorMessage
	}
	if upd.ProcessingTime != nil {
		conv.ProcessingTime = upd.ProcessingTime
	}
	if upd.Confidence != nil {
		conv.Confidence = upd.Confidence
	}
	if upd.OutputFilePath != nil {
		conv.OutputFilePath = upd.OutputFilePath
	}
	if upd.CompletedAt != nil && conv.CompletedAt == nil {
		conv.CompletedAt = upd.CompletedAt
	}

	clone := *conv
	return &clone, nil
}

// Delete removes a record if present. Deleting an absent id is a no-op.
func (s *MemoryStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversions[id]; !ok {
		return
	}
	delete(s.conversions, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// List returns all conversions ordered by creation time descending. Records
// created at the same instant keep their insertion order.
func (s *MemoryStore) List() []*models.Conversion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Conversion, 0, len(s.order))
	for _, id := range s.order {
		clone := *s.conversions[id]
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
