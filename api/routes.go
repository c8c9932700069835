package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter собирает все маршруты API доски
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	RegisterRoutes(router, h)
	return router
}

func RegisterRoutes(router *mux.Router, h *Handler) {
	router.HandleFunc("/healthz", h.Healthcheck).Methods(http.MethodGet)

	router.HandleFunc("/accounts", h.GetAccounts).Methods(http.MethodGet)
	router.HandleFunc("/accounts/{account}", h.GetAccount).Methods(http.MethodGet)

	router.HandleFunc("/blocks", h.MineBlock).Methods(http.MethodPost)
	router.HandleFunc("/blocks/{height:[0-9]+}", h.GetBlock).Methods(http.MethodGet)

	router.HandleFunc("/contracts/{contract}/read-only/{function}", h.CallReadOnly).Methods(http.MethodPost)

	router.HandleFunc("/tasks", h.GetTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{id:[0-9]+}", h.GetTask).Methods(http.MethodGet)
}
