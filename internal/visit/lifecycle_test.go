package visit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohamkundu27/AITelehealth/internal/correlate"
	"github.com/sohamkundu27/AITelehealth/internal/debounce"
	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/safety"
	"github.com/sohamkundu27/AITelehealth/internal/session"
	"github.com/sohamkundu27/AITelehealth/internal/store/memory"
	"github.com/sohamkundu27/AITelehealth/internal/visit"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// failingRecordStore rejects every save.
type failingRecordStore struct{}

func (failingRecordStore) Save(context.Context, *domain.VisitRecord) error {
	return errors.New("disk full")
}

func (failingRecordStore) GetBySessionID(context.Context, string) (*domain.VisitRecord, error) {
	return nil, domain.ErrNotFound
}

// capturingNotifier records notified session ids on a channel.
type capturingNotifier struct {
	notified chan string
}

func (n *capturingNotifier) NotifyClinician(_ context.Context, rec *domain.VisitRecord) error {
	n.notified <- rec.SessionID
	return nil
}

type fixture struct {
	clock     *fakeClock
	store     *session.Store
	records   *memory.RecordStore
	lifecycle *visit.Lifecycle
}

func newFixture(t *testing.T, opts ...visit.Option) *fixture {
	t.Helper()

	clock := newFakeClock()
	store := session.NewStore(session.WithClock(clock.Now))
	correlator := correlate.New(correlate.DefaultConfig(), store, correlate.WithClock(clock.Now))
	debouncer := debounce.New(8*time.Second, debounce.WithClock(clock.Now))
	records := memory.NewRecordStore()
	evaluator := safety.NewEvaluator(nil, time.Second)

	opts = append([]visit.Option{visit.WithClock(clock.Now)}, opts...)
	lc := visit.NewLifecycle(store, correlator, debouncer, evaluator, records, opts...)

	return &fixture{clock: clock, store: store, records: records, lifecycle: lc}
}

func TestStartVisit(t *testing.T) {
	t.Parallel()

	t.Run("generates_session_id", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		sess := f.lifecycle.StartVisit(visit.StartInput{Role: domain.RolePatient})

		assert.Contains(t, sess.SessionID, "visit-")
		assert.True(t, f.store.Active(sess.SessionID))
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		first := f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient})
		second := f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RoleDoctor})

		assert.Equal(t, first.StartTime, second.StartTime)
		assert.Equal(t, domain.RolePatient, second.Role)
	})

	t.Run("seeds_patient_history", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		sess := f.lifecycle.StartVisit(visit.StartInput{
			SessionID:      "visit-1",
			Role:           domain.RolePatient,
			PatientHistory: []string{"Metformin"},
		})

		assert.Equal(t, []string{"Metformin"}, sess.PatientHistory)
	})
}

func TestRecordDrugMention(t *testing.T) {
	t.Parallel()

	t.Run("debounces_duplicate_prescriptions", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture(t)
		f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient})

		first := f.lifecycle.RecordDrugMention(ctx, "visit-1", "Naproxen")
		f.clock.Advance(3 * time.Second)
		second := f.lifecycle.RecordDrugMention(ctx, "visit-1", "naproxen")

		assert.True(t, first.Recorded)
		assert.True(t, first.Prescribed)

		// The repeat is still logged as a mention but the prescription
		// fan-out fires exactly once.
		assert.True(t, second.Recorded)
		assert.True(t, second.Debounced)
		assert.False(t, second.Prescribed)

		mentions := f.store.RecentDrugMentions("visit-1", time.Minute)
		assert.Len(t, mentions, 2)
		assert.Len(t, f.store.Get("visit-1").Prescriptions, 1)
	})

	t.Run("debounced_repeat_still_correlates", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture(t)
		f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient})

		f.lifecycle.RecordDrugMention(ctx, "visit-1", "Naproxen")
		f.clock.Advance(6 * time.Second)
		repeat := f.lifecycle.RecordDrugMention(ctx, "visit-1", "Naproxen")
		require.True(t, repeat.Debounced)

		// Confusion 12s after the first mention: only the repeat at t=6 is
		// inside the 10s attribution window.
		f.clock.Advance(6 * time.Second)
		result := f.lifecycle.RecordConfusion(ctx, "visit-1", domain.StateConfusion, "blank stare", domain.ConfidenceHigh)

		require.True(t, result.Recorded)
		assert.Equal(t, "Naproxen", result.AttachedDrug)
	})

	t.Run("mention_before_connect_keeps_cooldown_free", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture(t)

		// Producer races ahead of the "connected" signal: the detection is
		// dropped without arming the cooldown for the key.
		early := f.lifecycle.RecordDrugMention(ctx, "visit-1", "Amoxicillin")
		assert.False(t, early.Recorded)
		assert.False(t, early.Debounced)

		f.clock.Advance(2 * time.Second)
		f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient})
		result := f.lifecycle.RecordDrugMention(ctx, "visit-1", "Amoxicillin")

		assert.True(t, result.Recorded)
		assert.False(t, result.Debounced)
		assert.True(t, result.Prescribed)
		assert.Len(t, f.store.RecentDrugMentions("visit-1", time.Minute), 1)
	})

	t.Run("prescribing_role_elevates_to_prescription", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture(t)
		f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RoleDoctor, ParticipantIdentity: "dr-lee"})

		result := f.lifecycle.RecordDrugMention(ctx, "visit-1", "Amoxicillin")

		require.True(t, result.Prescribed)
		sess := f.store.Get("visit-1")
		require.Len(t, sess.Prescriptions, 1)
		assert.Equal(t, "Amoxicillin", sess.Prescriptions[0].Drug)
		assert.Equal(t, "dr-lee", sess.Prescriptions[0].PrescribedBy)
	})

	t.Run("patient_session_hears_remote_prescriber", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture(t)
		f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient, ParticipantIdentity: "pat-42"})

		result := f.lifecycle.RecordDrugMention(ctx, "visit-1", "Amoxicillin")

		require.True(t, result.Prescribed)
		sess := f.store.Get("visit-1")
		require.Len(t, sess.Prescriptions, 1)
		// The prescriber is across the call; the patient identity is never
		// recorded as the prescriber.
		assert.Empty(t, sess.Prescriptions[0].PrescribedBy)
	})

	t.Run("unknown_role_mention_only", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture(t)
		f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.Role("observer")})

		result := f.lifecycle.RecordDrugMention(ctx, "visit-1", "Amoxicillin")

		assert.True(t, result.Recorded)
		assert.False(t, result.Prescribed)
		assert.Empty(t, f.store.Get("visit-1").Prescriptions)
	})

	t.Run("no_active_session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		result := f.lifecycle.RecordDrugMention(context.Background(), "visit-x", "Amoxicillin")

		assert.False(t, result.Recorded)
	})
}

func TestRecordConfusion_TriggersClarification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient})

	f.lifecycle.RecordDrugMention(ctx, "visit-1", "naproxen")
	f.clock.Advance(4 * time.Second)

	result := f.lifecycle.RecordConfusion(ctx, "visit-1", domain.StateConfusion, "furrowed brow", domain.ConfidenceHigh)

	require.True(t, result.Recorded)
	assert.Equal(t, "naproxen", result.AttachedDrug)
	require.NotNil(t, result.Trigger)
	assert.Equal(t, "naproxen", result.Trigger.Drug)

	assert.True(t, f.lifecycle.DismissClarification(ctx, "visit-1"))
}

func TestEndVisit(t *testing.T) {
	t.Parallel()

	t.Run("no_active_session", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		_, err := f.lifecycle.EndVisit(context.Background(), "visit-x")

		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	})

	t.Run("cannot_finalize_twice", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture(t)
		f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient})

		_, err := f.lifecycle.EndVisit(ctx, "visit-1")
		require.NoError(t, err)

		_, err = f.lifecycle.EndVisit(ctx, "visit-1")
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
		assert.Equal(t, 1, f.records.Len())
	})

	t.Run("failed_finalize_persists_nothing", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		clock := newFakeClock()
		store := session.NewStore(session.WithClock(clock.Now))
		correlator := correlate.New(correlate.DefaultConfig(), store, correlate.WithClock(clock.Now))
		debouncer := debounce.New(8*time.Second, debounce.WithClock(clock.Now))
		lc := visit.NewLifecycle(store, correlator, debouncer,
			safety.NewEvaluator(nil, time.Second), failingRecordStore{}, visit.WithClock(clock.Now))

		lc.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient})

		_, err := lc.EndVisit(ctx, "visit-1")
		require.Error(t, err)

		// The session must not re-enter Active after a failed finalize.
		assert.False(t, store.Active("visit-1"))
		_, err = lc.EndVisit(ctx, "visit-1")
		assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	})
}

func TestSafetyCheck(t *testing.T) {
	t.Parallel()

	t.Run("payload_only", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		rec, err := f.lifecycle.SafetyCheck(context.Background(), visit.CheckInput{
			SessionID: "visit-client",
			Prescriptions: []domain.Prescription{
				{Drug: "Lisinopril"}, {Drug: "Naproxen"},
			},
			Role: domain.RolePatient,
		})

		require.NoError(t, err)
		require.Len(t, rec.SafetyCheck.Risks, 1)
		assert.Equal(t, domain.RiskRenal, rec.SafetyCheck.Risks[0].Type)
	})

	t.Run("merges_active_session", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		f := newFixture(t)
		f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RoleDoctor})
		f.lifecycle.RecordDrugMention(ctx, "visit-1", "Lisinopril")

		rec, err := f.lifecycle.SafetyCheck(ctx, visit.CheckInput{
			SessionID:     "visit-1",
			Prescriptions: []domain.Prescription{{Drug: "Naproxen"}, {Drug: "lisinopril"}},
			Role:          domain.RoleDoctor,
		})

		require.NoError(t, err)
		// The duplicate lisinopril from the payload is dropped.
		require.Len(t, rec.Prescriptions, 2)
		assert.Equal(t, "Lisinopril", rec.Prescriptions[0].Drug)
		assert.Equal(t, "Naproxen", rec.Prescriptions[1].Drug)
		assert.False(t, f.store.Active("visit-1"))
	})

	t.Run("age_shapes_clinician_note", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		rec, err := f.lifecycle.SafetyCheck(context.Background(), visit.CheckInput{
			SessionID:     "visit-elder",
			Prescriptions: []domain.Prescription{{Drug: "Amoxicillin"}},
			Role:          domain.RolePatient,
			PatientAge:    78,
		})

		require.NoError(t, err)
		assert.Contains(t, rec.ClinicianNote, "over 65")
	})
}

func TestNotifier_DispatchedAfterPersist(t *testing.T) {
	t.Parallel()

	notifier := &capturingNotifier{notified: make(chan string, 1)}
	f := newFixture(t, visit.WithNotifier(notifier))
	f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-1", Role: domain.RolePatient})

	_, err := f.lifecycle.EndVisit(context.Background(), "visit-1")
	require.NoError(t, err)

	select {
	case id := <-notifier.notified:
		assert.Equal(t, "visit-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not invoked")
	}
}

// End-to-end: patient session with two mentions, ended a minute in, must
// produce a record whose clinician note names both drugs and whose patient
// follow-up warns about kidneys.
func TestEndToEnd_RenalRiskScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	f.lifecycle.StartVisit(visit.StartInput{SessionID: "visit-e2e", Role: domain.RolePatient})

	f.lifecycle.RecordDrugMention(ctx, "visit-e2e", "Lisinopril")
	f.clock.Advance(2 * time.Second)
	f.lifecycle.RecordDrugMention(ctx, "visit-e2e", "Naproxen")
	f.clock.Advance(58 * time.Second)

	rec, err := f.lifecycle.EndVisit(ctx, "visit-e2e")
	require.NoError(t, err)

	assert.Contains(t, rec.ClinicianNote, "Lisinopril")
	assert.Contains(t, rec.ClinicianNote, "Naproxen")
	assert.Contains(t, rec.PatientFollowUp, "kidney")

	stored, err := f.records.GetBySessionID(ctx, "visit-e2e")
	require.NoError(t, err)
	assert.Equal(t, rec.ClinicianNote, stored.ClinicianNote)
}
