package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/sohamkundu27/AITelehealth/internal/api/v1"
	"github.com/sohamkundu27/AITelehealth/internal/api/ws"
	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

func registerAPIRoutes(api huma.API, visits v1.VisitService, records domain.VisitRecordRepository) {
	v1.RegisterSessionRoutes(api, visits)
	v1.RegisterEventRoutes(api, visits)
	v1.RegisterSafetyRoutes(api, visits)
	v1.RegisterVisitRoutes(api, records)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/clarifications/{sessionID}", hub.ServeClarifications)
}
