package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/news/articles", h.GetArticles).Methods(http.MethodGet)
	r.HandleFunc("/news/everything/{source}", h.GetEverythingBySource).Methods(http.MethodGet)
	r.HandleFunc("/news/update", h.TriggerUpdate).Methods(http.MethodPost)

	return r
}
