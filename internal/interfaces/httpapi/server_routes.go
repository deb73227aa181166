package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/squads/{entryID}/advice", handler.GetAdvice)
	mux.HandleFunc("GET /v1/squads/{entryID}/advice/history", handler.GetAdviceHistory)
	mux.HandleFunc("GET /v1/squads/{entryID}/health", handler.GetSquadHealth)
	mux.HandleFunc("POST /v1/transfers/plan", handler.PlanTransfer)
	mux.HandleFunc("POST /v1/transfers/execute", handler.ExecuteTransfer)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/catalog/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RefreshCatalog)))
}
