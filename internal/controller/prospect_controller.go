// internal/controller/prospect_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/linkreach-backend/internal/service"
)

type ProspectController struct {
	ProspectService *service.ProspectService
	OutreachService *service.OutreachService
}

func (c *ProspectController) CreateProspect(w http.ResponseWriter, r *http.Request) {
	var body service.CreateProspectInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	prospect, err := c.ProspectService.CreateProspect(r.Context(), body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(prospect)
}

func (c *ProspectController) ListProspects(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	campaignID, _ := strconv.Atoi(r.URL.Query().Get("campaign_id"))
	status := r.URL.Query().Get("status")

	prospects, pagination, err := c.ProspectService.ListProspects(r.Context(), page, pageSize, campaignID, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       prospects,
		"pagination": pagination,
	})
}

func (c *ProspectController) GetProspect(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	details, err := c.ProspectService.GetProspect(r.Context(), id)
	if err != nil {
		if err.Error() == "prospect not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(details)
}

// FindContact starts the pipeline for one prospect: a contact-finder job is
// enqueued and the request returns immediately.
func (c *ProspectController) FindContact(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := c.OutreachService.EnqueueContactFinding(r.Context(), id); err != nil {
		if err.Error() == "prospect not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"prospect_id": id,
		"queued":      true,
	})
}

func (c *ProspectController) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := c.ProspectService.EnqueueEmailGeneration(r.Context(), id); err != nil {
		if err.Error() == "prospect not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"prospect_id": id,
		"queued":      true,
	})
}

func (c *ProspectController) TrashProspect(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := c.ProspectService.TrashProspect(r.Context(), id); err != nil {
		if err.Error() == "prospect not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *ProspectController) RestoreProspect(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	if err := c.ProspectService.RestoreProspect(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       id,
		"restored": true,
	})
}
