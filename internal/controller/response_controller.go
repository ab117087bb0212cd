// internal/controller/response_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/linkreach-backend/internal/service"
)

type ResponseController struct {
	OutreachService *service.OutreachService
}

// CreateResponse records an inbound reply and queues it for classification.
func (c *ResponseController) CreateResponse(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EmailID int    `json:"email_id"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	resp, err := c.OutreachService.RecordResponse(r.Context(), body.EmailID, body.Body)
	if err != nil {
		if err.Error() == "email not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// Reclassify reopens a handled response and queues it for classification
// again.
func (c *ResponseController) Reclassify(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := c.OutreachService.EnqueueReclassification(r.Context(), id); err != nil {
		if err.Error() == "response not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"response_id": id,
		"queued":      true,
	})
}
