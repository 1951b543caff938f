package domain

import (
	"context"
	"time"
)

// VisitRecord is the persisted, queryable artifact produced when a session
// finalizes. Immutable once written, keyed by session id.
type VisitRecord struct {
	SessionID       string         `json:"sessionId"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime"`
	Prescriptions   []Prescription `json:"prescriptions"`
	PatientHistory  []string       `json:"patientHistory"`
	SafetyCheck     *SafetyCheck   `json:"safetyCheck"`
	ClinicianNote   string         `json:"clinicianNote"`
	PatientFollowUp string         `json:"patientFollowUp"`
	Role            Role           `json:"role"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// VisitRecordRepository stores finalized visit records.
type VisitRecordRepository interface {
	Save(ctx context.Context, rec *VisitRecord) error
	GetBySessionID(ctx context.Context, sessionID string) (*VisitRecord, error)
}
