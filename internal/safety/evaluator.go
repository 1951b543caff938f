// Package safety aggregates a session's prescriptions against patient drug
// history into a structured risk report: a fixed rule table first, then
// per-drug lookups against an external interaction oracle.
package safety

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

// lookupOutcome is the explicit per-call result of one oracle lookup, so
// failure isolation is a visible contract rather than a swallowed exception.
type lookupOutcome struct {
	finding *domain.InteractionFinding
	err     error
}

// Evaluator produces SafetyChecks at session finalize.
type Evaluator struct {
	oracle        Oracle // nil: rule pass only
	lookupTimeout time.Duration
}

// NewEvaluator creates an Evaluator. oracle may be nil, in which case only
// the rule pass runs.
func NewEvaluator(oracle Oracle, lookupTimeout time.Duration) *Evaluator {
	return &Evaluator{oracle: oracle, lookupTimeout: lookupTimeout}
}

// Assess computes a fresh SafetyCheck for the finalized session. Oracle
// lookups run concurrently, one per distinct prescribed drug, each with its
// own timeout; a failed lookup is logged and omitted, never aborting the
// evaluation of the other drugs.
func (e *Evaluator) Assess(ctx context.Context, sessionID string, prescriptions []domain.Prescription, history []string) *domain.SafetyCheck {
	check := &domain.SafetyCheck{
		SessionID:      sessionID,
		Prescriptions:  prescriptions,
		PatientHistory: history,
		Risks:          applyRules(prescriptions, history),
		Interactions:   []domain.InteractionFinding{},
	}

	if e.oracle != nil {
		check.Interactions = e.lookupAll(ctx, prescriptions, history)
	}

	log.Info().
		Str("session_id", sessionID).
		Int("prescriptions", len(prescriptions)).
		Int("risks", len(check.Risks)).
		Int("interactions", len(check.Interactions)).
		Msg("safety: assessment complete")

	return check
}

// lookupAll fans out one oracle lookup per distinct prescribed drug and
// collects positive findings in prescription order.
func (e *Evaluator) lookupAll(ctx context.Context, prescriptions []domain.Prescription, history []string) []domain.InteractionFinding {
	drugs := distinctDrugs(prescriptions)
	if len(drugs) == 0 {
		return []domain.InteractionFinding{}
	}

	allKnown := make([]string, 0, len(drugs)+len(history))
	allKnown = append(allKnown, drugs...)
	allKnown = append(allKnown, history...)

	outcomes := make([]lookupOutcome, len(drugs))

	var wg sync.WaitGroup
	for i, drug := range drugs {
		wg.Add(1)
		go func(i int, drug string) {
			defer wg.Done()
			outcomes[i] = e.lookupOne(ctx, drug, without(allKnown, drug))
		}(i, drug)
	}
	wg.Wait()

	findings := []domain.InteractionFinding{}
	for i, out := range outcomes {
		if out.err != nil {
			log.Warn().Err(out.err).Str("drug", drugs[i]).Msg("safety: interaction lookup failed, finding omitted")
			continue
		}
		if out.finding != nil {
			findings = append(findings, *out.finding)
		}
	}
	return findings
}

// lookupOne queries the oracle for a single drug under its own timeout.
func (e *Evaluator) lookupOne(ctx context.Context, drug string, known []string) lookupOutcome {
	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	result, err := e.oracle.Lookup(lookupCtx, drug, known)
	if err != nil {
		return lookupOutcome{err: err}
	}
	if !result.HasConflict {
		return lookupOutcome{}
	}

	return lookupOutcome{finding: &domain.InteractionFinding{
		Drug:        drug,
		Interaction: result.Details,
		Source:      result.Source,
	}}
}

// distinctDrugs returns prescription drug names deduplicated
// case-insensitively, preserving first-seen order and spelling.
func distinctDrugs(prescriptions []domain.Prescription) []string {
	seen := make(map[string]bool, len(prescriptions))
	out := make([]string, 0, len(prescriptions))
	for _, p := range prescriptions {
		key := strings.ToLower(p.Drug)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p.Drug)
	}
	return out
}

// without returns drugs minus the given one (case-insensitive).
func without(drugs []string, drug string) []string {
	out := make([]string, 0, len(drugs))
	for _, d := range drugs {
		if !strings.EqualFold(d, drug) {
			out = append(out, d)
		}
	}
	return out
}
