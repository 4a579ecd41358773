package handler

import (
	"net/http"

	"go-gin-gift-admin/internal/service"

	"github.com/gin-gonic/gin"
)

type GiftHandler struct {
	service service.GiftService
}

func NewGiftHandler(service service.GiftService) *GiftHandler {
	return &GiftHandler{service: service}
}

func (h *GiftHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("gifts", h.List)
		router.GET("gifts/:id", h.GetByID)
	}
}

func (h *GiftHandler) List(c *gin.Context) {
	q, ok := bindFilter(c)
	if !ok {
		return
	}
	page, err := h.service.List(c, q)
	if err != nil {
		respondError(c, err, "ListGifts", nil)
		return
	}
	respondOK(c, http.StatusOK, page)
}

func (h *GiftHandler) GetByID(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err, "GetGift", nil)
		return
	}
	gift, err := h.service.GetByID(c, id)
	if err != nil {
		respondError(c, err, "GetGift", nil)
		return
	}
	respondOK(c, http.StatusOK, gift)
}
