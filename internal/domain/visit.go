package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ComprehensionState is the visually-inferred comprehension state of the
// patient at a point in the call.
type ComprehensionState string

const (
	StateConfusion     ComprehensionState = "CONFUSION"
	StateUnderstanding ComprehensionState = "UNDERSTANDING"
)

// Valid reports whether s is a known comprehension state.
func (s ComprehensionState) Valid() bool {
	return s == StateConfusion || s == StateUnderstanding
}

// Confidence grades how sure the inference collaborator is about an
// observation.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Valid reports whether c is a known confidence grade.
func (c Confidence) Valid() bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

// Role identifies which party a session belongs to.
type Role string

const (
	RolePatient  Role = "patient"
	RoleDoctor   Role = "doctor"
	RoleProvider Role = "provider"
)

// CanPrescribe reports whether this role itself holds prescribing authority.
func (r Role) CanPrescribe() bool {
	return r == RoleDoctor || r == RoleProvider
}

// PrescriberPresent reports whether drug mentions heard in a session with
// this role come from a party with prescribing authority. A clinician-side
// session transcribes the clinician directly; a patient-side session hears
// the clinician across the call. Unknown roles elevate nothing.
func (r Role) PrescriberPresent() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleProvider
}

// ConfusionEvent is a single timestamped comprehension observation.
// Immutable after creation except for DrugContext, which may be attached
// once by id when a nearby drug mention is attributed to it.
type ConfusionEvent struct {
	ID             uuid.UUID          `json:"id"`
	Timestamp      time.Time          `json:"timestamp"`
	State          ComprehensionState `json:"state"`
	VisualEvidence string             `json:"visualEvidence"`
	Confidence     Confidence         `json:"confidence"`
	DrugContext    string             `json:"drugContext,omitempty"`
}

// DrugMention is a recognized substance name detected in transcribed speech.
// A mention is not an order; see Prescription.
type DrugMention struct {
	Drug      string    `json:"drug"`
	Timestamp time.Time `json:"timestamp"`
}

// Prescription is a drug mention elevated to a confirmed order during the
// call.
type Prescription struct {
	Drug         string    `json:"drug"`
	Dosage       string    `json:"dosage,omitempty"`
	Duration     string    `json:"duration,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	PrescribedBy string    `json:"prescribedBy,omitempty"`
}

// VisitSession is the aggregate root for one live call. Created at
// call-connect, mutated by event producers while active, finalized exactly
// once at disconnect.
type VisitSession struct {
	SessionID           string           `json:"sessionId"`
	StartTime           time.Time        `json:"startTime"`
	EndTime             *time.Time       `json:"endTime,omitempty"`
	Role                Role             `json:"role"`
	ParticipantIdentity string           `json:"participantIdentity,omitempty"`
	Prescriptions       []Prescription   `json:"prescriptions"`
	ConfusionEvents     []ConfusionEvent `json:"confusionEvents"`
	DrugMentions        []DrugMention    `json:"drugMentions"`
	PatientHistory      []string         `json:"patientHistory,omitempty"`
}

// NewSessionID generates a session identifier in the form
// visit-<epochms>-<random>.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("visit-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
