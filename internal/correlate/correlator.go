// Package correlate decides whether a confusion observation should be
// attributed to a recently mentioned drug, and whether a patient-facing
// clarification should be surfaced for it.
package correlate

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/session"
)

// Config holds the correlation windows. Attribution is deliberately tighter
// than trigger eligibility: the expression directly follows the utterance,
// while the trigger tolerates extra latency from the inference pipeline.
type Config struct {
	AttributionWindow time.Duration
	TriggerWindow     time.Duration
	ClarificationTTL  time.Duration
}

// DefaultConfig returns the production windows.
func DefaultConfig() Config {
	return Config{
		AttributionWindow: 10 * time.Second,
		TriggerWindow:     15 * time.Second,
		ClarificationTTL:  30 * time.Second,
	}
}

// Trigger is the decision to surface a clarification for a drug to the
// patient.
type Trigger struct {
	SessionID   string    `json:"sessionId"`
	Drug        string    `json:"drug"`
	EventID     uuid.UUID `json:"eventId,omitempty"`
	TriggeredAt time.Time `json:"triggeredAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Decision is the outcome of evaluating one new confusion event.
type Decision struct {
	AttachedDrug string   // drug context attributed to the event, "" if none
	Trigger      *Trigger // clarification to surface, nil if none
}

// Publisher delivers clarification signals to the patient-facing surface.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, payload []byte) error
}

type activeClarification struct {
	drug    string
	shownAt time.Time
}

// Correlator applies the attribution and trigger rules against the session
// store and tracks the currently displayed clarification per session.
// The rule runs once per appended event and returns a decision value; it is
// never re-evaluated as a side effect of unrelated state changes.
type Correlator struct {
	cfg   Config
	store *session.Store
	pub   Publisher // nil: decisions are logged only

	mu     sync.Mutex
	active map[string]activeClarification
	now    func() time.Time
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// WithPublisher sets the clarification signal sink.
func WithPublisher(pub Publisher) Option {
	return func(c *Correlator) { c.pub = pub }
}

// New creates a Correlator over the given session store.
func New(cfg Config, store *session.Store, opts ...Option) *Correlator {
	c := &Correlator{
		cfg:    cfg,
		store:  store,
		active: make(map[string]activeClarification),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnConfusionEvent evaluates a freshly appended confusion event.
//
// Attribution: a CONFUSION event with no explicit drug context is tagged with
// the most recent drug mentioned inside the attribution window (latest
// timestamp wins; on equal timestamps the later-appended mention wins).
// An explicit context is never overwritten.
//
// Trigger: evaluated afterwards over the trigger window; see evaluateTrigger.
// UNDERSTANDING events are logged but never correlate or trigger.
func (c *Correlator) OnConfusionEvent(ctx context.Context, sessionID string, ev domain.ConfusionEvent) Decision {
	if ev.State != domain.StateConfusion {
		log.Debug().
			Str("session_id", sessionID).
			Str("state", string(ev.State)).
			Msg("correlate: non-confusion event ignored")
		return Decision{}
	}

	var attached string
	if ev.DrugContext == "" {
		if drug := c.latestMention(sessionID, c.cfg.AttributionWindow); drug != "" {
			if c.store.AttachDrugContext(sessionID, ev.ID, drug) {
				attached = drug
				log.Info().
					Str("session_id", sessionID).
					Str("drug", drug).
					Str("event_id", ev.ID.String()).
					Msg("correlate: drug context attributed")
			}
		}
	}

	trigger := c.evaluateTrigger(ctx, sessionID)
	return Decision{AttachedDrug: attached, Trigger: trigger}
}

// OnDrugMention re-evaluates trigger eligibility after a new drug mention;
// a mention can supply the inferred context a recent confusion event lacked.
func (c *Correlator) OnDrugMention(ctx context.Context, sessionID string) *Trigger {
	return c.evaluateTrigger(ctx, sessionID)
}

// evaluateTrigger asks: is there a confusion event inside the trigger window
// with confidence above LOW whose drug context is set, directly or inferred
// from the most recent mention? If so and no clarification for that drug is
// currently displayed, a trigger fires. An active clarification for the same
// drug is not re-triggered until dismissed, expired, or superseded by a
// different drug.
func (c *Correlator) evaluateTrigger(ctx context.Context, sessionID string) *Trigger {
	events := c.store.RecentConfusionEvents(sessionID, c.cfg.TriggerWindow)

	var (
		drug    string
		eventID uuid.UUID
	)
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.State != domain.StateConfusion || ev.Confidence == domain.ConfidenceLow {
			continue
		}
		candidate := ev.DrugContext
		if candidate == "" {
			candidate = c.latestMention(sessionID, c.cfg.TriggerWindow)
		}
		if candidate != "" {
			drug = candidate
			eventID = ev.ID
			break
		}
	}
	if drug == "" {
		return nil
	}

	now := c.now()

	c.mu.Lock()
	if cur, ok := c.active[sessionID]; ok {
		expired := now.Sub(cur.shownAt) >= c.cfg.ClarificationTTL
		if !expired && cur.drug == drug {
			c.mu.Unlock()
			return nil
		}
	}
	c.active[sessionID] = activeClarification{drug: drug, shownAt: now}
	c.mu.Unlock()

	trigger := &Trigger{
		SessionID:   sessionID,
		Drug:        drug,
		EventID:     eventID,
		TriggeredAt: now,
		ExpiresAt:   now.Add(c.cfg.ClarificationTTL),
	}

	log.Info().
		Str("session_id", sessionID).
		Str("drug", drug).
		Msg("correlate: clarification triggered")

	c.publish(ctx, sessionID, signal{Type: "clarification_triggered", Trigger: trigger})
	return trigger
}

// ActiveClarification returns the drug currently surfaced for the session,
// if any. Expired clarifications are dropped lazily.
func (c *Correlator) ActiveClarification(sessionID string) (string, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.active[sessionID]
	if !ok {
		return "", false
	}
	if now.Sub(cur.shownAt) >= c.cfg.ClarificationTTL {
		delete(c.active, sessionID)
		return "", false
	}
	return cur.drug, true
}

// Dismiss clears the active clarification for the session. Returns false when
// none was displayed.
func (c *Correlator) Dismiss(ctx context.Context, sessionID string) bool {
	c.mu.Lock()
	cur, ok := c.active[sessionID]
	if ok {
		delete(c.active, sessionID)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}

	log.Info().
		Str("session_id", sessionID).
		Str("drug", cur.drug).
		Msg("correlate: clarification dismissed")

	c.publish(ctx, sessionID, signal{Type: "clarification_dismissed", Drug: cur.drug})
	return true
}

// Reset drops all clarification state for a session that has ended.
func (c *Correlator) Reset(sessionID string) {
	c.mu.Lock()
	delete(c.active, sessionID)
	c.mu.Unlock()
}

// latestMention returns the most recent drug mentioned inside the window,
// or "". Ties on timestamp resolve to the later-appended mention.
func (c *Correlator) latestMention(sessionID string, window time.Duration) string {
	mentions := c.store.RecentDrugMentions(sessionID, window)
	if len(mentions) == 0 {
		return ""
	}

	best := mentions[0]
	for _, m := range mentions[1:] {
		if !m.Timestamp.Before(best.Timestamp) {
			best = m
		}
	}
	return best.Drug
}

// signal is the wire shape published to the clarification channel.
type signal struct {
	Type    string   `json:"type"`
	Drug    string   `json:"drug,omitempty"`
	Trigger *Trigger `json:"trigger,omitempty"`
}

func (c *Correlator) publish(ctx context.Context, sessionID string, sig signal) {
	if c.pub == nil {
		return
	}

	payload, err := json.Marshal(sig)
	if err != nil {
		log.Error().Err(err).Msg("correlate: marshal signal")
		return
	}

	if err := c.pub.Publish(ctx, sessionID, payload); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("correlate: publish signal")
	}
}
