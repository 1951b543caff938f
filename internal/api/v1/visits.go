package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

type GetVisitInput struct {
	SessionID string `path:"sessionID" doc:"Session ID"`
}

type GetVisitOutput struct {
	Body *domain.VisitRecord
}

func RegisterVisitRoutes(api huma.API, records domain.VisitRecordRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "get-visit",
		Method:      http.MethodGet,
		Path:        "/visits/{sessionID}",
		Summary:     "Get the finalized record for a visit",
		Tags:        []string{"Visits"},
	}, func(ctx context.Context, input *GetVisitInput) (*GetVisitOutput, error) {
		rec, err := records.GetBySessionID(ctx, input.SessionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("no record for that session")
			}
			return nil, huma.Error500InternalServerError("failed to load visit record", err)
		}

		return &GetVisitOutput{Body: rec}, nil
	})
}
