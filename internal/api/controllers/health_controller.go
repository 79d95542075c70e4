package controllers

import (
	"github.com/gin-gonic/gin"

	"socrat/internal/flow"
	"socrat/internal/models/response_models"
	mem "socrat/pkg/memcache"
	"socrat/pkg/utils"
)

type HealthController struct {
	workspaces mem.WorkspaceStore[*flow.ViewController]
}

func NewHealthController(workspaces mem.WorkspaceStore[*flow.ViewController]) *HealthController {
	return &HealthController{workspaces: workspaces}
}

func (h *HealthController) Healthz(c *gin.Context) {
	utils.RespondSuccess(c, response_models.HealthResponse{
		Status:     "ok",
		Workspaces: h.workspaces.Len(),
	}, "")
}
