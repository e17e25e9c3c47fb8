package routes

import (
	"encoding/json"
	"net/http"

	"github.com/228Labs/negotiator/negotiator/controllers"
	"github.com/228Labs/negotiator/negotiator/utils/types"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func NegotiationRoutes(ctrl *controllers.NegotiationController) chi.Router {
	r := chi.NewRouter()

	// POST /negotiation : start a new negotiation
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		id, err := ctrl.Create(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": id.String()})
	})

	// GET /negotiation/{negotiation_id} : transcript, system messages hidden
	r.Get("/{negotiation_id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "negotiation_id"))
		if err != nil {
			http.Error(w, "invalid negotiation id", http.StatusBadRequest)
			return
		}
		info, err := ctrl.Show(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if info == nil {
			http.Error(w, "negotiation not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	})

	// POST /negotiation/{negotiation_id}/messages : one chat turn
	r.Post("/{negotiation_id}/messages", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "negotiation_id"))
		if err != nil {
			http.Error(w, "invalid negotiation id", http.StatusBadRequest)
			return
		}
		var req types.MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		messageID, err := uuid.Parse(req.ID)
		if err != nil {
			http.Error(w, "invalid message id", http.StatusBadRequest)
			return
		}
		result, found, err := ctrl.NewMessage(r.Context(), id, messageID, req.Content)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "negotiation not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if result.Resolved != nil {
			json.NewEncoder(w).Encode(result.Resolved)
			return
		}
		json.NewEncoder(w).Encode(result.Reply)
	})

	// POST /negotiation/{negotiation_id}/messages/{message_id}/reset : rewind
	r.Post("/{negotiation_id}/messages/{message_id}/reset", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "negotiation_id"))
		if err != nil {
			http.Error(w, "invalid negotiation id", http.StatusBadRequest)
			return
		}
		messageID, err := uuid.Parse(chi.URLParam(r, "message_id"))
		if err != nil {
			http.Error(w, "invalid message id", http.StatusBadRequest)
			return
		}
		if err := ctrl.Reset(r.Context(), id, messageID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// OutcomeRoutes serves the negotiation summary listing.
func OutcomeRoutes(ctrl *controllers.NegotiationController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		outcomes, err := ctrl.ListOutcomes(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(outcomes)
	})
	return r
}
