// internal/controller/ops_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/unclebandit/linkreach-backend/internal/service"
)

// OpsController exposes the operational endpoints: manual sweep triggers
// and the queue health snapshot.
type OpsController struct {
	OutreachService *service.OutreachService
}

func (c *OpsController) RunFollowupSweep(w http.ResponseWriter, r *http.Request) {
	enqueued, err := c.OutreachService.RunFollowupSweepNow(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sweep":    "followup",
		"enqueued": enqueued,
	})
}

func (c *OpsController) RunLinkCheckSweep(w http.ResponseWriter, r *http.Request) {
	enqueued, err := c.OutreachService.RunLinkCheckSweepNow(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"sweep":    "link_check",
		"enqueued": enqueued,
	})
}

func (c *OpsController) QueueHealth(w http.ResponseWriter, r *http.Request) {
	depths, err := c.OutreachService.QueueHealth(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"queues": depths,
	})
}
