package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/visit"
)

type SafetyCheckInput struct {
	Body struct {
		SessionID      string                `json:"sessionId" minLength:"1" doc:"Session to finalize"`
		Prescriptions  []domain.Prescription `json:"prescriptions,omitempty" doc:"Client-tracked prescriptions"`
		PatientHistory []string              `json:"patientHistory,omitempty" doc:"Known current medications"`
		Role           string                `json:"role,omitempty" enum:"patient,doctor,provider" doc:"Which party submits the check"`
		PatientAge     int                   `json:"patientAge,omitempty" minimum:"0" maximum:"150" doc:"Patient age in years; 0 means unknown"`
	}
}

type SafetyCheckOutput struct {
	Body struct {
		SessionID       string              `json:"sessionId"`
		SafetyCheck     *domain.SafetyCheck `json:"safetyCheck"`
		ClinicianNote   string              `json:"clinicianNote"`
		PatientFollowUp string              `json:"patientFollowUp"`
		Success         bool                `json:"success"`
	}
}

// RegisterSafetyRoutes wires the post-session safety evaluation. The payload
// is the source of truth for client-tracked state; any still-active
// server-side session with the same id is finalized and merged in.
func RegisterSafetyRoutes(api huma.API, visits VisitService) {
	huma.Register(api, huma.Operation{
		OperationID: "safety-check",
		Method:      http.MethodPost,
		Path:        "/safety-check",
		Summary:     "Run the post-session drug-safety evaluation",
		Tags:        []string{"Safety"},
	}, func(ctx context.Context, input *SafetyCheckInput) (*SafetyCheckOutput, error) {
		rec, err := visits.SafetyCheck(ctx, visit.CheckInput{
			SessionID:      input.Body.SessionID,
			Prescriptions:  input.Body.Prescriptions,
			PatientHistory: input.Body.PatientHistory,
			Role:           domain.Role(input.Body.Role),
			PatientAge:     input.Body.PatientAge,
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("safety check failed", err)
		}

		out := &SafetyCheckOutput{}
		out.Body.SessionID = rec.SessionID
		out.Body.SafetyCheck = rec.SafetyCheck
		out.Body.ClinicianNote = rec.ClinicianNote
		out.Body.PatientFollowUp = rec.PatientFollowUp
		out.Body.Success = true
		return out, nil
	})
}
