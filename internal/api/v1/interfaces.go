package v1

import (
	"context"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/visit"
)

// VisitService abstracts the session pipeline for handler testing.
// *visit.Lifecycle satisfies this interface.
type VisitService interface {
	StartVisit(in visit.StartInput) *domain.VisitSession
	RecordDrugMention(ctx context.Context, sessionID, drug string) visit.MentionResult
	RecordConfusion(ctx context.Context, sessionID string, state domain.ComprehensionState, evidence string, confidence domain.Confidence) visit.ObservationResult
	DismissClarification(ctx context.Context, sessionID string) bool
	EndVisit(ctx context.Context, sessionID string) (*domain.VisitRecord, error)
	SafetyCheck(ctx context.Context, in visit.CheckInput) (*domain.VisitRecord, error)
}
