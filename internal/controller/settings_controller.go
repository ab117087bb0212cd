// internal/controller/settings_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/unclebandit/linkreach-backend/internal/service"
)

type SettingsController struct {
	SettingsService *service.SettingsService
}

func (c *SettingsController) GetSending(w http.ResponseWriter, r *http.Request) {
	report, err := c.SettingsService.GetSending(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(report)
}

func (c *SettingsController) UpdateSending(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DailyLimit    int  `json:"daily_limit"`
		WarmupEnabled bool `json:"warmup_enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	report, err := c.SettingsService.UpdateSending(r.Context(), body.DailyLimit, body.WarmupEnabled)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(report)
}

func (c *SettingsController) AdvanceWarmup(w http.ResponseWriter, r *http.Request) {
	report, err := c.SettingsService.AdvanceWarmupWeek(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(report)
}
