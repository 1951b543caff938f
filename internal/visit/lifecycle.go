// Package visit orchestrates the life of a telehealth session: start at
// call-connect, event ingestion while active, and the finalize pass that
// turns the session into a persisted visit record.
package visit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sohamkundu27/AITelehealth/internal/correlate"
	"github.com/sohamkundu27/AITelehealth/internal/debounce"
	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/message"
	"github.com/sohamkundu27/AITelehealth/internal/session"
)

// Evaluator produces the safety check at finalize.
type Evaluator interface {
	Assess(ctx context.Context, sessionID string, prescriptions []domain.Prescription, history []string) *domain.SafetyCheck
}

// Notifier delivers the clinician note to an external channel after a record
// is persisted. Delivery failures never affect the finalize result.
type Notifier interface {
	NotifyClinician(ctx context.Context, rec *domain.VisitRecord) error
}

// Lifecycle drives sessions through NoSession -> Active -> Finalizing.
// The idempotent-start and single-finalize guarantees come from the session
// store; a failed finalize never re-enters Active and never persists a
// partial record.
type Lifecycle struct {
	store      *session.Store
	correlator *correlate.Correlator
	debouncer  *debounce.Debouncer
	evaluator  Evaluator
	records    domain.VisitRecordRepository
	notifier   Notifier // nil: no dispatch
	now        func() time.Time
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

// WithNotifier sets the clinician notification channel.
func WithNotifier(n Notifier) Option {
	return func(l *Lifecycle) { l.notifier = n }
}

// NewLifecycle wires the session pipeline.
func NewLifecycle(store *session.Store, correlator *correlate.Correlator, debouncer *debounce.Debouncer, evaluator Evaluator, records domain.VisitRecordRepository, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		store:      store,
		correlator: correlator,
		debouncer:  debouncer,
		evaluator:  evaluator,
		records:    records,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StartInput describes a "connected" signal.
type StartInput struct {
	SessionID           string // empty: generated
	Role                domain.Role
	ParticipantIdentity string
	PatientHistory      []string
}

// StartVisit activates a session. Duplicate "connected" signals for the same
// id are idempotent no-ops.
func (l *Lifecycle) StartVisit(in StartInput) *domain.VisitSession {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = domain.NewSessionID(l.now())
	}

	sess := l.store.StartVisit(sessionID, in.Role, in.ParticipantIdentity)
	if len(in.PatientHistory) > 0 && len(sess.PatientHistory) == 0 {
		l.store.SetPatientHistory(sessionID, in.PatientHistory)
		sess.PatientHistory = append([]string(nil), in.PatientHistory...)
	}
	return sess
}

// MentionResult is the acknowledgment for one drug-mention detection.
type MentionResult struct {
	Recorded   bool
	Debounced  bool
	Prescribed bool
	Trigger    *correlate.Trigger
}

// RecordDrugMention ingests a spoken-drug detection. Every detection during
// an active session is appended to the mention log and fed to the correlator;
// detections for an inactive session are dropped before the cooldown gate is
// consulted, so a producer racing ahead of the "connected" signal never
// consumes the cooldown slot. The gate covers only the prescription fan-out:
// one spoken sentence re-transcribed as several overlapping results elevates
// to a prescription at most once per cooldown window.
func (l *Lifecycle) RecordDrugMention(ctx context.Context, sessionID, drug string) MentionResult {
	mention, ok := l.store.AddDrugMention(sessionID, drug)
	if !ok {
		return MentionResult{}
	}

	result := MentionResult{Recorded: true}

	if !l.debouncer.ShouldFire(debounceKey(sessionID, drug)) {
		result.Debounced = true
		log.Debug().Str("session_id", sessionID).Str("drug", drug).Msg("visit: duplicate drug detection debounced")
	} else if sess := l.store.Get(sessionID); sess != nil && sess.Role.PrescriberPresent() {
		prescribedBy := ""
		if sess.Role.CanPrescribe() {
			prescribedBy = sess.ParticipantIdentity
		}
		result.Prescribed = l.store.AddPrescription(sessionID, domain.Prescription{
			Drug:         drug,
			Timestamp:    mention.Timestamp,
			PrescribedBy: prescribedBy,
		})
	}

	result.Trigger = l.correlator.OnDrugMention(ctx, sessionID)
	return result
}

// ObservationResult is the acknowledgment for one comprehension observation.
type ObservationResult struct {
	Recorded     bool
	EventID      uuid.UUID
	AttachedDrug string
	Trigger      *correlate.Trigger
}

// RecordConfusion ingests a comprehension observation and runs the
// correlation rule once for it.
func (l *Lifecycle) RecordConfusion(ctx context.Context, sessionID string, state domain.ComprehensionState, evidence string, confidence domain.Confidence) ObservationResult {
	ev, ok := l.store.AddConfusionEvent(sessionID, state, evidence, confidence)
	if !ok {
		return ObservationResult{}
	}

	decision := l.correlator.OnConfusionEvent(ctx, sessionID, ev)
	return ObservationResult{
		Recorded:     true,
		EventID:      ev.ID,
		AttachedDrug: decision.AttachedDrug,
		Trigger:      decision.Trigger,
	}
}

// DismissClarification clears the currently displayed clarification.
func (l *Lifecycle) DismissClarification(ctx context.Context, sessionID string) bool {
	return l.correlator.Dismiss(ctx, sessionID)
}

// EndVisit finalizes the session on a "disconnected" signal. Returns
// domain.ErrNoActiveSession when no session with that id is active, so an
// already-ended or never-started session can never yield a duplicate record.
func (l *Lifecycle) EndVisit(ctx context.Context, sessionID string) (*domain.VisitRecord, error) {
	snap := l.store.EndVisit(sessionID)
	if snap == nil {
		return nil, domain.ErrNoActiveSession
	}

	return l.finalize(ctx, snap, 0)
}

// CheckInput is the client-driven safety-check request.
type CheckInput struct {
	SessionID      string
	Prescriptions  []domain.Prescription
	PatientHistory []string
	Role           domain.Role
	PatientAge     int // <= 0: unknown
}

// SafetyCheck finalizes against a client-supplied payload. When a session
// with the given id is still active it is ended and its event logs are
// merged with the payload; otherwise the payload alone is evaluated.
func (l *Lifecycle) SafetyCheck(ctx context.Context, in CheckInput) (*domain.VisitRecord, error) {
	snap := l.store.EndVisit(in.SessionID)
	if snap == nil {
		now := l.now()
		snap = &domain.VisitSession{
			SessionID: in.SessionID,
			StartTime: now,
			EndTime:   &now,
			Role:      in.Role,
		}
	}

	snap.Prescriptions = mergePrescriptions(snap.Prescriptions, in.Prescriptions)
	snap.PatientHistory = mergeHistory(snap.PatientHistory, in.PatientHistory)
	if in.Role != "" {
		snap.Role = in.Role
	}

	return l.finalize(ctx, snap, in.PatientAge)
}

// finalize runs the post-call pipeline over a finalized snapshot. The session
// store was already cleared, so a failure here cannot re-enter Active; it
// simply produces no record.
func (l *Lifecycle) finalize(ctx context.Context, snap *domain.VisitSession, patientAge int) (*domain.VisitRecord, error) {
	l.correlator.Reset(snap.SessionID)
	l.debouncer.Forget(snap.SessionID + "|")

	check := l.evaluator.Assess(ctx, snap.SessionID, snap.Prescriptions, snap.PatientHistory)

	endTime := l.now()
	if snap.EndTime != nil {
		endTime = *snap.EndTime
	}

	rec := &domain.VisitRecord{
		SessionID:       snap.SessionID,
		StartTime:       snap.StartTime,
		EndTime:         endTime,
		Prescriptions:   snap.Prescriptions,
		PatientHistory:  snap.PatientHistory,
		SafetyCheck:     check,
		ClinicianNote:   message.ClinicianNote(check, patientAge),
		PatientFollowUp: message.PatientFollowUp(check),
		Role:            snap.Role,
		CreatedAt:       l.now(),
	}

	if err := l.records.Save(ctx, rec); err != nil {
		log.Error().Err(err).Str("session_id", snap.SessionID).Msg("visit: finalize failed, no record persisted")
		return nil, fmt.Errorf("visit.Lifecycle.finalize: %w", err)
	}

	log.Info().
		Str("session_id", snap.SessionID).
		Int("prescriptions", len(rec.Prescriptions)).
		Int("risks", len(check.Risks)).
		Msg("visit: record persisted")

	if l.notifier != nil {
		go func(rec *domain.VisitRecord) {
			if err := l.notifier.NotifyClinician(context.Background(), rec); err != nil {
				log.Warn().Err(err).Str("session_id", rec.SessionID).Msg("visit: clinician notification failed")
			}
		}(rec)
	}

	return rec, nil
}

func debounceKey(sessionID, drug string) string {
	return sessionID + "|" + strings.ToLower(drug)
}

// mergePrescriptions unions by case-insensitive drug key, session entries
// first.
func mergePrescriptions(fromSession, fromPayload []domain.Prescription) []domain.Prescription {
	seen := make(map[string]bool, len(fromSession))
	out := append([]domain.Prescription(nil), fromSession...)
	for _, p := range fromSession {
		seen[strings.ToLower(p.Drug)] = true
	}
	for _, p := range fromPayload {
		key := strings.ToLower(p.Drug)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// mergeHistory unions preserving order, session entries first.
func mergeHistory(fromSession, fromPayload []string) []string {
	seen := make(map[string]bool, len(fromSession))
	out := append([]string(nil), fromSession...)
	for _, h := range fromSession {
		seen[strings.ToLower(h)] = true
	}
	for _, h := range fromPayload {
		key := strings.ToLower(h)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}
