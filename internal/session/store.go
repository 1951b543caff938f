package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

// Store owns the mutable state of active visit sessions, keyed by session id.
// Appends from concurrent event producers are serialized by a single mutex;
// reads return copies so callers never observe in-place mutation.
//
// Appends addressed to a session that is not active are dropped, not queued:
// events from a torn-down call have no session to belong to.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*domain.VisitSession
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*domain.VisitSession),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartVisit initializes a new active session. If a session with the same id
// is already active the call is an idempotent no-op and the existing session
// is returned; duplicate "connected" signals must not spawn a second session.
func (s *Store) StartVisit(sessionID string, role domain.Role, participantIdentity string) *domain.VisitSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[sessionID]; ok {
		log.Debug().Str("session_id", sessionID).Msg("session: duplicate start ignored")
		return snapshot(existing)
	}

	sess := &domain.VisitSession{
		SessionID:           sessionID,
		StartTime:           s.now(),
		Role:                role,
		ParticipantIdentity: participantIdentity,
		Prescriptions:       []domain.Prescription{},
		ConfusionEvents:     []domain.ConfusionEvent{},
		DrugMentions:        []domain.DrugMention{},
	}
	s.sessions[sessionID] = sess

	log.Info().
		Str("session_id", sessionID).
		Str("role", string(role)).
		Msg("session: visit started")

	return snapshot(sess)
}

// EndVisit removes the session from the active set and returns a finalized
// snapshot with EndTime stamped. Returns nil when no session with that id is
// active, so a second disconnect can never produce a second record.
func (s *Store) EndVisit(sessionID string) *domain.VisitSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	delete(s.sessions, sessionID)

	end := s.now()
	sess.EndTime = &end

	log.Info().
		Str("session_id", sessionID).
		Time("end_time", end).
		Msg("session: visit ended")

	return snapshot(sess)
}

// Active reports whether a session with the given id is currently active.
func (s *Store) Active(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[sessionID]
	return ok
}

// Get returns a snapshot of an active session, or nil.
func (s *Store) Get(sessionID string) *domain.VisitSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return snapshot(sess)
}

// AddDrugMention appends a drug mention to the session's log. Returns the
// stored mention and false when the session is not active (event dropped).
func (s *Store) AddDrugMention(sessionID, drug string) (domain.DrugMention, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		log.Debug().Str("session_id", sessionID).Str("drug", drug).Msg("session: drug mention dropped, no active session")
		return domain.DrugMention{}, false
	}

	m := domain.DrugMention{Drug: drug, Timestamp: s.now()}
	sess.DrugMentions = append(sess.DrugMentions, m)
	return m, true
}

// AddPrescription appends a confirmed order to the session's log. Returns
// false when the session is not active (event dropped).
func (s *Store) AddPrescription(sessionID string, p domain.Prescription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		log.Debug().Str("session_id", sessionID).Str("drug", p.Drug).Msg("session: prescription dropped, no active session")
		return false
	}

	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}
	sess.Prescriptions = append(sess.Prescriptions, p)
	return true
}

// AddConfusionEvent appends a comprehension observation to the session's log
// and returns the stored event with its generated id. Returns false when the
// session is not active (event dropped).
func (s *Store) AddConfusionEvent(sessionID string, state domain.ComprehensionState, evidence string, confidence domain.Confidence) (domain.ConfusionEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		log.Debug().Str("session_id", sessionID).Msg("session: confusion event dropped, no active session")
		return domain.ConfusionEvent{}, false
	}

	ev := domain.ConfusionEvent{
		ID:             uuid.New(),
		Timestamp:      s.now(),
		State:          state,
		VisualEvidence: evidence,
		Confidence:     confidence,
	}
	sess.ConfusionEvents = append(sess.ConfusionEvents, ev)
	return ev, true
}

// SetPatientHistory replaces the session's known drug history.
func (s *Store) SetPatientHistory(sessionID string, history []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	sess.PatientHistory = append([]string(nil), history...)
	return true
}

// AttachDrugContext attaches a drug context to an existing confusion event by
// id. The attachment is a single atomic read-modify-write under the store
// lock; an event that already carries a context is never overwritten.
func (s *Store) AttachDrugContext(sessionID string, eventID uuid.UUID, drug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return false
	}

	for i := range sess.ConfusionEvents {
		if sess.ConfusionEvents[i].ID != eventID {
			continue
		}
		if sess.ConfusionEvents[i].DrugContext != "" {
			return false
		}
		sess.ConfusionEvents[i].DrugContext = drug
		return true
	}
	return false
}

// RecentDrugMentions returns mentions with timestamp >= now-window, in append
// order. Pure view; never mutates state.
func (s *Store) RecentDrugMentions(sessionID string, window time.Duration) []domain.DrugMention {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	cutoff := s.now().Add(-window)
	var out []domain.DrugMention
	for _, m := range sess.DrugMentions {
		if !m.Timestamp.Before(cutoff) {
			out = append(out, m)
		}
	}
	return out
}

// RecentConfusionEvents returns confusion events with timestamp >= now-window,
// in append order. Pure view; never mutates state.
func (s *Store) RecentConfusionEvents(sessionID string, window time.Duration) []domain.ConfusionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	cutoff := s.now().Add(-window)
	var out []domain.ConfusionEvent
	for _, ev := range sess.ConfusionEvents {
		if !ev.Timestamp.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out
}

// snapshot deep-copies a session so callers cannot mutate store state.
func snapshot(sess *domain.VisitSession) *domain.VisitSession {
	cp := *sess
	cp.Prescriptions = append([]domain.Prescription(nil), sess.Prescriptions...)
	cp.ConfusionEvents = append([]domain.ConfusionEvent(nil), sess.ConfusionEvents...)
	cp.DrugMentions = append([]domain.DrugMention(nil), sess.DrugMentions...)
	cp.PatientHistory = append([]string(nil), sess.PatientHistory...)
	if sess.EndTime != nil {
		end := *sess.EndTime
		cp.EndTime = &end
	}
	return &cp
}
