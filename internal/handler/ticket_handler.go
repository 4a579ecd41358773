package handler

import (
	"net/http"

	"go-gin-gift-admin/internal/model"
	"go-gin-gift-admin/internal/service"
	apperrors "go-gin-gift-admin/pkg/app_errors"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("tickets/history", h.History)
		// 查詢使用驗證碼，變更操作使用數字 ID
		router.GET("tickets/:ticket", h.GetByCode)
		router.POST("tickets/:ticket/consume", h.Consume)
		router.POST("tickets/:ticket/schedule", h.Schedule)
	}
}

// ScheduleRequest 排程請求，日期格式 YYYY-MM-DD
type ScheduleRequest struct {
	ScheduledDate string `json:"scheduledDate" binding:"required"`
}

func (h *TicketHandler) History(c *gin.Context) {
	q, ok := bindFilter(c)
	if !ok {
		return
	}
	page, err := h.service.History(c, q)
	if err != nil {
		respondError(c, err, "History", nil)
		return
	}
	respondOK(c, http.StatusOK, page)
}

func (h *TicketHandler) GetByCode(c *gin.Context) {
	ticket, err := h.service.GetByCode(c, c.Param("ticket"))
	if err != nil {
		respondError(c, err, "GetByCode", nil)
		return
	}
	respondOK(c, http.StatusOK, ticket)
}

func (h *TicketHandler) Consume(c *gin.Context) {
	id, err := pathID(c, "ticket")
	if err != nil {
		respondError(c, err, "Consume", nil)
		return
	}
	actor, err := actorID(c)
	if err != nil {
		respondError(c, err, "Consume", nil)
		return
	}

	ticket, err := h.service.Consume(c, id, actor)
	if err != nil {
		respondError(c, err, "Consume", ticket)
		return
	}
	respondOK(c, http.StatusOK, ticket)
}

func (h *TicketHandler) Schedule(c *gin.Context) {
	id, err := pathID(c, "ticket")
	if err != nil {
		respondError(c, err, "Schedule", nil)
		return
	}
	actor, err := actorID(c)
	if err != nil {
		respondError(c, err, "Schedule", nil)
		return
	}

	var req ScheduleRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	when, err := model.ParseDate(req.ScheduledDate)
	if err != nil || when == nil {
		respondError(c, apperrors.ErrInvalidInput, "Schedule", nil)
		return
	}

	ticket, err := h.service.Schedule(c, id, actor, *when)
	if err != nil {
		respondError(c, err, "Schedule", ticket)
		return
	}
	respondOK(c, http.StatusOK, ticket)
}
