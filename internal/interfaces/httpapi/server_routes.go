package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics == nil {
		return
	}
	mux.Handle("GET /metrics", metrics)
}

func registerLeagueRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
}

func registerBoardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/boards", handler.CreateBoard)
	mux.HandleFunc("GET /v1/boards/{boardID}", handler.GetBoard)
	mux.HandleFunc("DELETE /v1/boards/{boardID}", handler.DeleteBoard)
	mux.HandleFunc("PUT /v1/boards/{boardID}/league", handler.SetBoardLeague)
	mux.HandleFunc("PUT /v1/boards/{boardID}/season", handler.SetBoardSeason)
	mux.HandleFunc("PUT /v1/boards/{boardID}/limit", handler.SetBoardLimit)
	mux.HandleFunc("POST /v1/boards/{boardID}/refresh", handler.RefreshBoard)
	mux.HandleFunc("POST /v1/boards/{boardID}/pages/{collection}/{direction}", handler.PageBoard)
}
