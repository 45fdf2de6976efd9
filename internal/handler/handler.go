package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/muniwatch/debt-service/internal/ledger"
	"github.com/muniwatch/debt-service/internal/models"
)

// Handler serves read-only dashboard endpoints over the ledger.
type Handler struct {
	reader *ledger.CSVStore
	log    *logrus.Logger
}

func NewHandler(reader *ledger.CSVStore, log *logrus.Logger) *Handler {
	return &Handler{reader: reader, log: log}
}

// Register mounts the dashboard routes.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/snapshot", h.Snapshot).Methods("GET")
	r.HandleFunc("/history", h.History).Methods("GET")
}

// Snapshot returns the latest ledger row.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := h.reader.Last()
	if err != nil {
		h.log.Errorf("Failed to read ledger: %v", err)
		http.Error(w, "failed to read ledger", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no snapshot recorded yet", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

// History returns the full trend, oldest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.reader.History()
	if err != nil {
		h.log.Errorf("Failed to read ledger: %v", err)
		http.Error(w, "failed to read ledger", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []models.ImpactRecord{}
	}
	writeJSON(w, history)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
