package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletfy-api/internal/models"
	"walletfy-api/internal/service"
	"walletfy-api/internal/validation"
)

type EventController struct {
	eventService service.EventService
	log          *zap.Logger
}

func NewEventController(eventService service.EventService, log *zap.Logger) *EventController {
	return &EventController{
		eventService: eventService,
		log:          log,
	}
}

// ListEvents handles GET /api/events?type=income|expense
func (ec *EventController) ListEvents(c *gin.Context) {
	events, err := ec.eventService.List(c.Request.Context(), userID(c), c.Query("type"))
	if err != nil {
		respondError(c, ec.log, err, "Error al obtener los eventos")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  events,
	})
}

// GetEvent handles GET /api/events/:id
func (ec *EventController) GetEvent(c *gin.Context) {
	event, err := ec.eventService.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, ec.log, err, "Error al obtener el evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"event":   event,
	})
}

// CreateEvent handles POST /api/events
func (ec *EventController) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := validation.Bind(c, &req); err != nil {
		respondError(c, ec.log, err, "Error al crear el evento")
		return
	}

	event, err := ec.eventService.Create(c.Request.Context(), userID(c), &req)
	if err != nil {
		respondError(c, ec.log, err, "Error al crear el evento")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Evento creado exitosamente",
		"event":   event,
	})
}

// UpdateEvent handles PUT /api/events/:id; only the supplied fields change
func (ec *EventController) UpdateEvent(c *gin.Context) {
	var req models.UpdateEventRequest
	if err := validation.Bind(c, &req); err != nil {
		respondError(c, ec.log, err, "Error al actualizar el evento")
		return
	}

	event, err := ec.eventService.Update(c.Request.Context(), userID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, ec.log, err, "Error al actualizar el evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Evento actualizado exitosamente",
		"event":   event,
	})
}

// DeleteEvent handles DELETE /api/events/:id
func (ec *EventController) DeleteEvent(c *gin.Context) {
	if err := ec.eventService.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, ec.log, err, "Error al eliminar el evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Evento eliminado exitosamente",
	})
}

// MonthlySummary handles GET /api/events/summary/monthly?year=&month=
func (ec *EventController) MonthlySummary(c *gin.Context) {
	summary, err := ec.eventService.MonthlySummary(c.Request.Context(), userID(c), queryInt(c, "year"), queryInt(c, "month"))
	if err != nil {
		respondError(c, ec.log, err, "Error al obtener el resumen mensual")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}
