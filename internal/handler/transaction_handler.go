package handler

import (
	"fmt"
	"net/http"

	"go-gin-gift-admin/internal/model"
	"go-gin-gift-admin/internal/service"
	"go-gin-gift-admin/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	service service.TransactionService
}

func NewTransactionHandler(service service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

func (h *TransactionHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("wallet/transactions", h.list(model.ProviderWallet))
		router.GET("wallet/transactions/export", h.export(model.ProviderWallet))
		router.GET("serdipay/transactions", h.list(model.ProviderSerdipay))
	}
}

func (h *TransactionHandler) list(provider model.TransactionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, ok := bindFilter(c)
		if !ok {
			return
		}
		page, err := h.service.List(c, provider, q)
		if err != nil {
			respondError(c, err, "ListTransactions", nil)
			return
		}
		respondOK(c, http.StatusOK, page)
	}
}

// export 以 CSV 串流回傳，錯誤時回傳一般的 JSON envelope
func (h *TransactionHandler) export(provider model.TransactionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, ok := bindFilter(c)
		if !ok {
			return
		}
		job, err := h.service.Export(c, provider, q)
		if err != nil {
			respondError(c, err, "ExportTransactions", nil)
			return
		}

		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, job.Filename))
		c.Status(http.StatusOK)
		if err := job.WriteCSV(c.Writer); err != nil {
			// header 已送出，只能記錄
			logger.WithComponent("handler").Error("Failed to stream export",
				zap.String("filename", job.Filename), zap.Error(err))
		}
	}
}
