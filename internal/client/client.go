// Package client is the typed boundary to the admin REST API. Envelopes
// with success=false become *model.Rejection; every other failure is a
// *TransportError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-gin-gift-admin/config"
	"go-gin-gift-admin/internal/model"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	contentTypeJSON = "application/json"
	HeaderActorID   = "X-Admin-ID"
	HeaderRequestID = "X-Request-ID"
)

var (
	ErrMalformedResponse = errors.New("malformed response")
	// ErrRejected 伺服器回傳未知 code 時使用
	ErrRejected = errors.New("request rejected")
)

// TransportError 逾時、DNS、5xx、無法解析的回應
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	actorID int
	http    *http.Client
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(cfg config.APIConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		actorID: cfg.ActorID,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger.WithComponent("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) LookupTicket(ctx context.Context, code string) (*model.Ticket, error) {
	raw, err := c.call(ctx, "lookup ticket", http.MethodGet, "/tickets/"+url.PathEscape(code), nil, nil)
	return c.ticket("lookup ticket", raw, err)
}

func (c *Client) ConsumeTicket(ctx context.Context, ticketID int) (*model.Ticket, error) {
	path := fmt.Sprintf("/tickets/%d/consume", ticketID)
	raw, err := c.call(ctx, "consume ticket", http.MethodPost, path, nil, struct{}{})
	return c.ticket("consume ticket", raw, err)
}

type scheduleRequest struct {
	ScheduledDate string `json:"scheduledDate"`
}

func (c *Client) ScheduleTicket(ctx context.Context, ticketID int, when time.Time) (*model.Ticket, error) {
	path := fmt.Sprintf("/tickets/%d/schedule", ticketID)
	body := scheduleRequest{ScheduledDate: when.Format(model.DateLayout)}
	raw, err := c.call(ctx, "schedule ticket", http.MethodPost, path, nil, body)
	return c.ticket("schedule ticket", raw, err)
}

func (c *Client) TicketHistory(ctx context.Context, q model.FilterQuery) (model.Page[*model.Ticket], error) {
	page, err := list[*model.Ticket](ctx, c, "ticket history", "/tickets/history", q)
	if err != nil {
		return page, err
	}
	for _, t := range page.Items {
		if err := t.Validate(); err != nil {
			return model.Page[*model.Ticket]{}, c.malformed("ticket history", err)
		}
	}
	return page, nil
}

func (c *Client) WalletTransactions(ctx context.Context, q model.FilterQuery) (model.Page[*model.WalletTransaction], error) {
	return list[*model.WalletTransaction](ctx, c, "wallet transactions", "/wallet/transactions", q)
}

func (c *Client) SerdipayTransactions(ctx context.Context, q model.FilterQuery) (model.Page[*model.WalletTransaction], error) {
	return list[*model.WalletTransaction](ctx, c, "serdipay transactions", "/serdipay/transactions", q)
}

func (c *Client) Gifts(ctx context.Context, q model.FilterQuery) (model.Page[*model.Gift], error) {
	return list[*model.Gift](ctx, c, "gifts", "/gifts", q)
}

// ExportWalletTransactions 將伺服器產生的 CSV 寫入 w，回傳伺服器建議的檔名
func (c *Client) ExportWalletTransactions(ctx context.Context, q model.FilterQuery, w io.Writer) (string, error) {
	const op = "export wallet transactions"

	resp, err := c.send(ctx, op, http.MethodGet, "/wallet/transactions/export", q.Values(), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == contentTypeJSON || resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", c.fault(op, resp.StatusCode, err)
		}
		_, err = c.decode(op, resp.StatusCode, body)
		if err == nil {
			err = c.fault(op, resp.StatusCode, ErrMalformedResponse)
		}
		return "", err
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", c.fault(op, resp.StatusCode, err)
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return filename, nil
}

func list[T any](ctx context.Context, c *Client, op, path string, q model.FilterQuery) (model.Page[T], error) {
	raw, err := c.call(ctx, op, http.MethodGet, path, q.Values(), nil)
	if err != nil {
		return model.Page[T]{}, err
	}
	var page model.Page[T]
	if err := json.Unmarshal(raw, &page); err != nil {
		return model.Page[T]{}, c.malformed(op, err)
	}
	return page, nil
}

// ticket 解析票券快照；業務拒絕若附帶快照也一併解析
func (c *Client) ticket(op string, raw json.RawMessage, err error) (*model.Ticket, error) {
	var rejection *model.Rejection
	if err != nil && !errors.As(err, &rejection) {
		return nil, err
	}

	var ticket *model.Ticket
	if len(raw) > 0 && string(raw) != "null" {
		ticket = &model.Ticket{}
		if decodeErr := json.Unmarshal(raw, ticket); decodeErr != nil {
			return nil, c.malformed(op, decodeErr)
		}
		if validateErr := ticket.Validate(); validateErr != nil {
			return nil, c.malformed(op, validateErr)
		}
	}

	if rejection != nil {
		if ticket != nil {
			rejection.Ticket = ticket
			if rejection.Message == "" {
				rejection.Message = model.RejectionMessage(rejection.Err, ticket)
			}
		}
		return nil, rejection
	}
	if ticket == nil {
		return nil, c.malformed(op, errors.New("empty ticket"))
	}
	return ticket, nil
}

// call 送出請求並拆開 envelope；業務拒絕時同時回傳 data
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	resp, err := c.send(ctx, op, method, path, query, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fault(op, resp.StatusCode, err)
	}
	return c.decode(op, resp.StatusCode, payload)
}

func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if c.actorID > 0 {
		req.Header.Set(HeaderActorID, strconv.Itoa(c.actorID))
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fault(op, 0, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		resp.Body.Close()
		return nil, c.fault(op, resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	}
	return resp, nil
}

func (c *Client) decode(op string, status int, payload []byte) (json.RawMessage, error) {
	var envelope model.Envelope[json.RawMessage]
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, c.fault(op, status, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	if envelope.Success {
		return envelope.Data, nil
	}

	sentinel := apperrors.FromCode(envelope.Code)
	if sentinel == nil {
		if status == http.StatusNotFound {
			sentinel = apperrors.ErrTicketNotFound
		} else {
			sentinel = ErrRejected
		}
	}
	message := envelope.Message
	if message == "" {
		message = sentinel.Error()
	}
	c.log.Warn("request rejected", zap.String("op", op), zap.Int("status", status),
		zap.String("code", envelope.Code), zap.String("message", message))
	return envelope.Data, &model.Rejection{Err: sentinel, Message: message}
}

func (c *Client) malformed(op string, err error) error {
	return c.fault(op, 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
}

func (c *Client) fault(op string, status int, err error) error {
	c.log.Error("transport error", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	return &TransportError{Op: op, StatusCode: status, Err: err}
}
