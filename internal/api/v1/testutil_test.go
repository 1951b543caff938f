package v1_test

import (
	"context"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/visit"
)

// ---------------------------------------------------------------------------
// Mock VisitService
// ---------------------------------------------------------------------------

type mockVisitService struct {
	startVisitFunc     func(in visit.StartInput) *domain.VisitSession
	recordMentionFunc  func(ctx context.Context, sessionID, drug string) visit.MentionResult
	recordConfusionFunc func(ctx context.Context, sessionID string, state domain.ComprehensionState, evidence string, confidence domain.Confidence) visit.ObservationResult
	dismissFunc        func(ctx context.Context, sessionID string) bool
	endVisitFunc       func(ctx context.Context, sessionID string) (*domain.VisitRecord, error)
	safetyCheckFunc    func(ctx context.Context, in visit.CheckInput) (*domain.VisitRecord, error)
}

func (m *mockVisitService) StartVisit(in visit.StartInput) *domain.VisitSession {
	return m.startVisitFunc(in)
}

func (m *mockVisitService) RecordDrugMention(ctx context.Context, sessionID, drug string) visit.MentionResult {
	return m.recordMentionFunc(ctx, sessionID, drug)
}

func (m *mockVisitService) RecordConfusion(ctx context.Context, sessionID string, state domain.ComprehensionState, evidence string, confidence domain.Confidence) visit.ObservationResult {
	return m.recordConfusionFunc(ctx, sessionID, state, evidence, confidence)
}

func (m *mockVisitService) DismissClarification(ctx context.Context, sessionID string) bool {
	return m.dismissFunc(ctx, sessionID)
}

func (m *mockVisitService) EndVisit(ctx context.Context, sessionID string) (*domain.VisitRecord, error) {
	return m.endVisitFunc(ctx, sessionID)
}

func (m *mockVisitService) SafetyCheck(ctx context.Context, in visit.CheckInput) (*domain.VisitRecord, error) {
	return m.safetyCheckFunc(ctx, in)
}

// ---------------------------------------------------------------------------
// Mock VisitRecordRepository
// ---------------------------------------------------------------------------

type mockRecordRepo struct {
	saveFunc           func(ctx context.Context, rec *domain.VisitRecord) error
	getBySessionIDFunc func(ctx context.Context, sessionID string) (*domain.VisitRecord, error)
}

func (m *mockRecordRepo) Save(ctx context.Context, rec *domain.VisitRecord) error {
	return m.saveFunc(ctx, rec)
}

func (m *mockRecordRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.VisitRecord, error) {
	return m.getBySessionIDFunc(ctx, sessionID)
}
