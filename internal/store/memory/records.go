// Package memory provides the default in-process visit record store: a
// mutex-guarded map keyed by session id, no expiry. A production deployment
// wanting durability or eviction plugs in the postgres store instead.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

// RecordStore is an in-memory domain.VisitRecordRepository.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.VisitRecord
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]*domain.VisitRecord)}
}

// Save stores a finalized record. Records are immutable once written; saving
// the same session id twice is rejected.
func (s *RecordStore) Save(_ context.Context, rec *domain.VisitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.SessionID]; ok {
		return fmt.Errorf("memory.RecordStore.Save: session %s: record already exists", rec.SessionID)
	}

	cp := *rec
	s.records[rec.SessionID] = &cp
	return nil
}

// GetBySessionID returns the record for a session, or domain.ErrNotFound.
func (s *RecordStore) GetBySessionID(_ context.Context, sessionID string) (*domain.VisitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[sessionID]
	if !ok {
		return nil, fmt.Errorf("memory.RecordStore.GetBySessionID: session %s: %w", sessionID, domain.ErrNotFound)
	}

	cp := *rec
	return &cp, nil
}

// Len reports how many records are stored.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
