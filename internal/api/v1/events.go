package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sohamkundu27/AITelehealth/internal/correlate"
	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

type DrugMentionInput struct {
	SessionID string `path:"sessionID" doc:"Session ID"`
	Body      struct {
		Drug string `json:"drug" minLength:"1" doc:"Recognized substance name"`
	}
}

type DrugMentionOutput struct {
	Status int
	Body   struct {
		Recorded      bool               `json:"recorded"`
		Debounced     bool               `json:"debounced,omitempty"`
		Prescribed    bool               `json:"prescribed,omitempty"`
		Clarification *correlate.Trigger `json:"clarification,omitempty"`
	}
}

type ConfusionInput struct {
	SessionID string `path:"sessionID" doc:"Session ID"`
	Body      struct {
		State          string `json:"state" enum:"CONFUSION,UNDERSTANDING" doc:"Inferred comprehension state"`
		VisualEvidence string `json:"visualEvidence,omitempty" doc:"Free-text description of the visual cue"`
		Confidence     string `json:"confidence" enum:"LOW,MEDIUM,HIGH" doc:"Inference confidence"`
	}
}

type ConfusionOutput struct {
	Status int
	Body   struct {
		Recorded      bool               `json:"recorded"`
		EventID       string             `json:"eventId,omitempty"`
		DrugContext   string             `json:"drugContext,omitempty"`
		Clarification *correlate.Trigger `json:"clarification,omitempty"`
	}
}

type DismissInput struct {
	SessionID string `path:"sessionID" doc:"Session ID"`
}

type DismissOutput struct {
	Body struct {
		Dismissed bool `json:"dismissed"`
	}
}

// RegisterEventRoutes wires the fire-and-forget event producers. Events for
// inactive sessions are acknowledged but not recorded; producers never need
// to care whether the call already ended.
func RegisterEventRoutes(api huma.API, visits VisitService) {
	huma.Register(api, huma.Operation{
		OperationID:   "record-drug-mention",
		Method:        http.MethodPost,
		Path:          "/sessions/{sessionID}/events/drug-mentions",
		Summary:       "Record a spoken drug mention",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *DrugMentionInput) (*DrugMentionOutput, error) {
		result := visits.RecordDrugMention(ctx, input.SessionID, input.Body.Drug)

		out := &DrugMentionOutput{Status: http.StatusAccepted}
		out.Body.Recorded = result.Recorded
		out.Body.Debounced = result.Debounced
		out.Body.Prescribed = result.Prescribed
		out.Body.Clarification = result.Trigger
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "record-confusion",
		Method:        http.MethodPost,
		Path:          "/sessions/{sessionID}/events/confusion",
		Summary:       "Record a comprehension observation",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *ConfusionInput) (*ConfusionOutput, error) {
		result := visits.RecordConfusion(ctx, input.SessionID,
			domain.ComprehensionState(input.Body.State),
			input.Body.VisualEvidence,
			domain.Confidence(input.Body.Confidence),
		)

		out := &ConfusionOutput{Status: http.StatusAccepted}
		out.Body.Recorded = result.Recorded
		if result.Recorded {
			out.Body.EventID = result.EventID.String()
		}
		out.Body.DrugContext = result.AttachedDrug
		out.Body.Clarification = result.Trigger
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dismiss-clarification",
		Method:      http.MethodPost,
		Path:        "/sessions/{sessionID}/clarification/dismiss",
		Summary:     "Dismiss the active clarification prompt",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *DismissInput) (*DismissOutput, error) {
		out := &DismissOutput{}
		out.Body.Dismissed = visits.DismissClarification(ctx, input.SessionID)
		return out, nil
	})
}

func isNoActiveSession(err error) bool {
	return errors.Is(err, domain.ErrNoActiveSession)
}
