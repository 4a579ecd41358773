package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-gin-gift-admin/config"
	"go-gin-gift-admin/internal/model"
	apperrors "go-gin-gift-admin/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var expiration = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func consumedTicket() *model.Ticket {
	consumedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &model.Ticket{
		ID:               42,
		CodeVerification: "GIFT-042",
		State:            model.TicketStateConsumed,
		ExpirationAt:     expiration,
		ConsumedAt:       &consumedAt,
		Distributor:      &model.User{ID: 2, Name: "Bob"},
	}
}

func setupServer(t *testing.T, register func(r *gin.RouterGroup)) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router.Group("/api/v1"))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return New(config.APIConfig{
		BaseURL: server.URL + "/api/v1",
		Timeout: time.Second,
		ActorID: 7,
	}, WithLogger(zap.NewNop()))
}

func TestClient_LookupTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		var actor, requestID string
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.GET("/tickets/:ticket", func(ctx *gin.Context) {
				actor = ctx.GetHeader(HeaderActorID)
				requestID = ctx.GetHeader(HeaderRequestID)
				ctx.JSON(http.StatusOK, model.Envelope[*model.Ticket]{Success: true, Data: &model.Ticket{
					ID: 1, CodeVerification: ctx.Param("ticket"), State: model.TicketStateNotConsumed, ExpirationAt: expiration,
				}})
			})
		})

		ticket, err := c.LookupTicket(ctx, "GIFT-001")
		require.NoError(t, err)
		assert.Equal(t, "GIFT-001", ticket.CodeVerification)
		assert.Equal(t, "7", actor)
		assert.NotEmpty(t, requestID)
	})

	t.Run("Failed - not found", func(t *testing.T) {
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.GET("/tickets/:ticket", func(ctx *gin.Context) {
				ctx.JSON(http.StatusNotFound, model.Envelope[any]{Message: "ticket not found", Code: apperrors.CodeNotFound})
			})
		})

		_, err := c.LookupTicket(ctx, "NOPE")
		var rejection *model.Rejection
		require.ErrorAs(t, err, &rejection)
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
		assert.Equal(t, "ticket not found", rejection.Message)
	})

	t.Run("Failed - invalid snapshot", func(t *testing.T) {
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.GET("/tickets/:ticket", func(ctx *gin.Context) {
				ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"id": 1, "state": "lost"}})
			})
		})

		_, err := c.LookupTicket(ctx, "GIFT-001")
		var transport *TransportError
		require.ErrorAs(t, err, &transport)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestClient_ConsumeTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("Failed - rejection carries message and snapshot", func(t *testing.T) {
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.POST("/tickets/:ticket/consume", func(ctx *gin.Context) {
				ctx.JSON(http.StatusConflict, model.Envelope[*model.Ticket]{
					Message: "Ticket déjà consommé",
					Code:    apperrors.CodeAlreadyConsumed,
					Data:    consumedTicket(),
				})
			})
		})

		_, err := c.ConsumeTicket(ctx, 42)
		var rejection *model.Rejection
		require.ErrorAs(t, err, &rejection)
		assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyConsumed)
		assert.Equal(t, "Ticket déjà consommé", rejection.Message)
		require.NotNil(t, rejection.Ticket)
		assert.Equal(t, "Bob", rejection.Ticket.Distributor.Name)
	})

	t.Run("Failed - unknown code", func(t *testing.T) {
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.POST("/tickets/:ticket/consume", func(ctx *gin.Context) {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "quota reached"})
			})
		})

		_, err := c.ConsumeTicket(ctx, 42)
		assert.ErrorIs(t, err, ErrRejected)
		assert.Equal(t, "quota reached", err.Error())
	})

	t.Run("Failed - 5xx is a transport error", func(t *testing.T) {
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.POST("/tickets/:ticket/consume", func(ctx *gin.Context) {
				ctx.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "upstream"})
			})
		})

		_, err := c.ConsumeTicket(ctx, 42)
		var transport *TransportError
		require.ErrorAs(t, err, &transport)
		assert.Equal(t, http.StatusBadGateway, transport.StatusCode)
		var rejection *model.Rejection
		assert.False(t, errors.As(err, &rejection))
	})

	t.Run("Failed - malformed JSON", func(t *testing.T) {
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.POST("/tickets/:ticket/consume", func(ctx *gin.Context) {
				ctx.String(http.StatusOK, "<html>")
			})
		})

		_, err := c.ConsumeTicket(ctx, 42)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestClient_ScheduleTicket(t *testing.T) {
	var body scheduleRequest
	c := setupServer(t, func(r *gin.RouterGroup) {
		r.POST("/tickets/:ticket/schedule", func(ctx *gin.Context) {
			assert.NoError(t, ctx.ShouldBindJSON(&body))
			when, _ := time.Parse(model.DateLayout, body.ScheduledDate)
			ctx.JSON(http.StatusOK, model.Envelope[*model.Ticket]{Success: true, Data: &model.Ticket{
				ID: 42, State: model.TicketStateScheduled, ExpirationAt: expiration,
				ScheduledFor: &when, Distributor: &model.User{ID: 7},
			}})
		})
	})

	ticket, err := c.ScheduleTicket(context.Background(), 42, time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", body.ScheduledDate)
	assert.Equal(t, model.TicketStateScheduled, ticket.State)
}

func TestClient_WalletTransactions(t *testing.T) {
	var rawQuery string
	c := setupServer(t, func(r *gin.RouterGroup) {
		r.GET("/wallet/transactions", func(ctx *gin.Context) {
			rawQuery = ctx.Request.URL.RawQuery
			q := model.NewFilterQuery(2).WithPage(2)
			ctx.JSON(http.StatusOK, model.Envelope[model.Page[*model.WalletTransaction]]{
				Success: true,
				Data: model.NewPage([]*model.WalletTransaction{
					{ID: 3, Reference: "TX-3", Amount: 5, Currency: "USD"},
				}, 3, q),
			})
		})
	})

	q := model.NewFilterQuery(2).WithStatus("completed").WithPage(2)
	page, err := c.WalletTransactions(context.Background(), q)
	require.NoError(t, err)
	assert.Contains(t, rawQuery, "status=completed")
	assert.Contains(t, rawQuery, "page=2")
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "TX-3", page.Items[0].Reference)
}

func TestClient_ExportWalletTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.GET("/wallet/transactions/export", func(ctx *gin.Context) {
				ctx.Header("Content-Disposition", `attachment; filename="wallet_transactions_filtered_2024-03-15.csv"`)
				ctx.Data(http.StatusOK, "text/csv", []byte("Reference\nTX-1\n"))
			})
		})

		var buf bytes.Buffer
		filename, err := c.ExportWalletTransactions(ctx, model.NewFilterQuery(10), &buf)
		require.NoError(t, err)
		assert.Equal(t, "wallet_transactions_filtered_2024-03-15.csv", filename)
		assert.Equal(t, "Reference\nTX-1\n", buf.String())
	})

	t.Run("Failed - nothing to export", func(t *testing.T) {
		c := setupServer(t, func(r *gin.RouterGroup) {
			r.GET("/wallet/transactions/export", func(ctx *gin.Context) {
				ctx.JSON(http.StatusNotFound, model.Envelope[any]{Message: "nothing to export", Code: apperrors.CodeNothingToExport})
			})
		})

		var buf bytes.Buffer
		_, err := c.ExportWalletTransactions(ctx, model.NewFilterQuery(10), &buf)
		assert.ErrorIs(t, err, apperrors.ErrNothingToExport)
		assert.Zero(t, buf.Len())
	})
}
