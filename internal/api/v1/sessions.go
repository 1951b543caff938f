package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
	"github.com/sohamkundu27/AITelehealth/internal/visit"
)

type StartSessionInput struct {
	Body struct {
		SessionID           string   `json:"sessionId,omitempty" doc:"Session ID; generated when omitted"`
		Role                string   `json:"role" enum:"patient,doctor,provider" doc:"Which party this session belongs to"`
		ParticipantIdentity string   `json:"participantIdentity,omitempty" doc:"Display identity of the connecting participant"`
		PatientHistory      []string `json:"patientHistory,omitempty" doc:"Known current medications"`
	}
}

type StartSessionOutput struct {
	Body *domain.VisitSession
}

type EndSessionInput struct {
	SessionID string `path:"sessionID" doc:"Session ID"`
}

type EndSessionOutput struct {
	Body *domain.VisitRecord
}

func RegisterSessionRoutes(api huma.API, visits VisitService) {
	huma.Register(api, huma.Operation{
		OperationID: "start-session",
		Method:      http.MethodPost,
		Path:        "/sessions",
		Summary:     "Start a visit session",
		Tags:        []string{"Sessions"},
	}, func(_ context.Context, input *StartSessionInput) (*StartSessionOutput, error) {
		sess := visits.StartVisit(visit.StartInput{
			SessionID:           input.Body.SessionID,
			Role:                domain.Role(input.Body.Role),
			ParticipantIdentity: input.Body.ParticipantIdentity,
			PatientHistory:      input.Body.PatientHistory,
		})

		return &StartSessionOutput{Body: sess}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "end-session",
		Method:      http.MethodPost,
		Path:        "/sessions/{sessionID}/end",
		Summary:     "End a visit session and finalize its record",
		Tags:        []string{"Sessions"},
	}, func(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error) {
		rec, err := visits.EndVisit(ctx, input.SessionID)
		if err != nil {
			if isNoActiveSession(err) {
				return nil, huma.Error404NotFound("no active session with that id")
			}
			return nil, huma.Error500InternalServerError("failed to finalize session", err)
		}

		return &EndSessionOutput{Body: rec}, nil
	})
}
