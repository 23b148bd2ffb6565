package controller

import (
	"errors"
	"faqbot_backend/internal/service"
	"faqbot_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// GetStatistics godoc
// @Summary Global keyword frequencies
// @Description Recomputes keyword counts across every user and date bucket of the keyword index.
// @Tags statistics
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/statistics [get]
func (c *StatsController) GetStatistics(ctx *gin.Context) {
	stats, err := c.StatsService.ListStats(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, util.ErrStoreUnavailable) {
			util.ServiceUnavailable(ctx, "Store unavailable, please retry.")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"statistics": stats})
}
