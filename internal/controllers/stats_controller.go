package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletfy-api/internal/service"
)

type StatsController struct {
	statsService service.StatsService
	log          *zap.Logger
}

func NewStatsController(statsService service.StatsService, log *zap.Logger) *StatsController {
	return &StatsController{
		statsService: statsService,
		log:          log,
	}
}

// GetPeriods handles GET /api/stats/periods
func (sc *StatsController) GetPeriods(c *gin.Context) {
	periods, err := sc.statsService.Periods(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, sc.log, err, "Error al obtener períodos de transacciones")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"periods": periods,
	})
}

// GetDaily handles GET /api/stats/daily?year=&month=
func (sc *StatsController) GetDaily(c *gin.Context) {
	stats, err := sc.statsService.Daily(c.Request.Context(), userID(c), queryInt(c, "year"), queryInt(c, "month"))
	if err != nil {
		respondError(c, sc.log, err, "Error al obtener estadísticas diarias")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// GetWeekly handles GET /api/stats/weekly?year=&month=
func (sc *StatsController) GetWeekly(c *gin.Context) {
	stats, err := sc.statsService.Weekly(c.Request.Context(), userID(c), queryInt(c, "year"), queryInt(c, "month"))
	if err != nil {
		respondError(c, sc.log, err, "Error al obtener estadísticas semanales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// GetCategory handles GET /api/stats/category?year=&month=
func (sc *StatsController) GetCategory(c *gin.Context) {
	stats, err := sc.statsService.Category(c.Request.Context(), userID(c), queryInt(c, "year"), queryInt(c, "month"))
	if err != nil {
		respondError(c, sc.log, err, "Error al obtener estadísticas por categoría")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
