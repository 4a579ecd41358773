package handler

import (
	"net/http"
	"strconv"
	"time"

	"go-gin-gift-admin/internal/model"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderActorID   = "X-Admin-ID"
	HeaderRequestID = "X-Request-ID"
)

var statusByCode = map[string]int{
	apperrors.CodeNotFound:         http.StatusNotFound,
	apperrors.CodeAlreadyConsumed:  http.StatusConflict,
	apperrors.CodeAlreadyExpired:   http.StatusConflict,
	apperrors.CodeNotOwner:         http.StatusConflict,
	apperrors.CodeNotScheduled:     http.StatusConflict,
	apperrors.CodeExportInProgress: http.StatusConflict,
	apperrors.CodeInvalidDate:      http.StatusUnprocessableEntity,
	apperrors.CodeInvalidInput:     http.StatusBadRequest,
	apperrors.CodeNothingToExport:  http.StatusNotFound,
	apperrors.CodeUnauthorized:     http.StatusUnauthorized,
}

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, apperrors.ErrInvalidInput, "BindJson", nil)
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondError(c, apperrors.ErrInvalidInput, "BindQuery", nil)
		return err
	}
	return nil
}

// FilterRequest querystring 形式的 FilterQuery
type FilterRequest struct {
	Search             string `form:"search"`
	Status             string `form:"status"`
	Type               string `form:"type"`
	Currency           string `form:"currency"`
	DateFrom           string `form:"dateFrom"`
	DateTo             string `form:"dateTo"`
	ExpirationDateFrom string `form:"expirationDateFrom"`
	ExpirationDateTo   string `form:"expirationDateTo"`
	Page               int    `form:"page" binding:"omitempty,min=1"`
	PerPage            int    `form:"perPage" binding:"omitempty,min=1"`
}

func (r FilterRequest) ToQuery() (model.FilterQuery, error) {
	dates := make([]*time.Time, 4)
	for i, raw := range []string{r.DateFrom, r.DateTo, r.ExpirationDateFrom, r.ExpirationDateTo} {
		d, err := model.ParseDate(raw)
		if err != nil {
			return model.FilterQuery{}, apperrors.ErrInvalidInput
		}
		dates[i] = d
	}

	q := model.FilterQuery{
		Search:             r.Search,
		Status:             r.Status,
		Type:               r.Type,
		Currency:           r.Currency,
		DateFrom:           dates[0],
		DateTo:             dates[1],
		ExpirationDateFrom: dates[2],
		ExpirationDateTo:   dates[3],
		Page:               r.Page,
		PerPage:            r.PerPage,
	}
	return q.Normalize(), nil
}

// bindFilter 失敗時已寫入回應
func bindFilter(c *gin.Context) (model.FilterQuery, bool) {
	var req FilterRequest
	if err := BindQuery(c, &req); err != nil {
		return model.FilterQuery{}, false
	}
	q, err := req.ToQuery()
	if err != nil {
		respondError(c, err, "bindFilter", nil)
		return model.FilterQuery{}, false
	}
	return q, true
}

// actorID 由上游驗證後帶入的管理員 ID
func actorID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.GetHeader(HeaderActorID))
	if err != nil || id <= 0 {
		return 0, apperrors.ErrUnauthorized
	}
	return id, nil
}

func pathID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperrors.ErrInvalidInput
	}
	return id, nil
}

func respondOK[T any](c *gin.Context, status int, data T) {
	c.JSON(status, model.Envelope[T]{Success: true, Data: data})
}

// respondError 業務拒絕以 warn 記錄並回傳對應的 code；ticket 不為 nil 時附上目前快照
func respondError(c *gin.Context, err error, operation string, ticket *model.Ticket) {
	log := logger.WithComponent("handler").With(
		zap.String("operation", operation),
		zap.String("request_id", c.GetString(HeaderRequestID)),
		zap.Error(err),
	)

	code := apperrors.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, model.Envelope[any]{
			Message: apperrors.ErrInternalServerError.Error(),
			Code:    apperrors.CodeInternal,
		})
		return
	}

	log.Warn("Request rejected", zap.String("code", code))
	envelope := model.Envelope[*model.Ticket]{
		Message: model.RejectionMessage(err, ticket),
		Code:    code,
		Data:    ticket,
	}
	c.JSON(status, envelope)
}

// RequestLogger 以 zap 記錄每個請求，並沿用或產生 X-Request-ID
func RequestLogger() gin.HandlerFunc {
	log := logger.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		log.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("actor", c.GetHeader(HeaderActorID)),
		)
	}
}
