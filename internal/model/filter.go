package model

import (
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultPerPage = 10
	// MaxPerPage 也是匯出時使用的「不分頁」大小
	MaxPerPage       = 100000
	UnboundedPerPage = MaxPerPage

	DateLayout = "2006-01-02"
)

// FilterQuery 查詢條件（不可變）。每次篩選變更都建立新的 FilterQuery。
type FilterQuery struct {
	Search             string
	Status             string
	Type               string
	Currency           string
	DateFrom           *time.Time
	DateTo             *time.Time
	ExpirationDateFrom *time.Time
	ExpirationDateTo   *time.Time
	Page               int
	PerPage            int
}

func NewFilterQuery(perPage int) FilterQuery {
	return FilterQuery{Page: 1, PerPage: perPage}.Normalize()
}

func (q FilterQuery) WithSearch(search string) FilterQuery {
	q.Search = search
	q.Page = 1
	return q
}

func (q FilterQuery) WithStatus(status string) FilterQuery {
	q.Status = status
	q.Page = 1
	return q
}

func (q FilterQuery) WithType(typ string) FilterQuery {
	q.Type = typ
	q.Page = 1
	return q
}

func (q FilterQuery) WithCurrency(currency string) FilterQuery {
	q.Currency = currency
	q.Page = 1
	return q
}

func (q FilterQuery) WithDateRange(from, to *time.Time) FilterQuery {
	q.DateFrom = copyTime(from)
	q.DateTo = copyTime(to)
	q.Page = 1
	return q
}

func (q FilterQuery) WithExpirationRange(from, to *time.Time) FilterQuery {
	q.ExpirationDateFrom = copyTime(from)
	q.ExpirationDateTo = copyTime(to)
	q.Page = 1
	return q
}

func (q FilterQuery) WithPage(page int) FilterQuery {
	q.Page = page
	return q
}

func (q FilterQuery) WithPerPage(perPage int) FilterQuery {
	q.PerPage = perPage
	q.Page = 1
	return q
}

// Unbounded 保留所有篩選條件，只取消分頁
func (q FilterQuery) Unbounded() FilterQuery {
	q.Page = 1
	q.PerPage = UnboundedPerPage
	return q
}

// Cleared 清除所有篩選條件，只保留分頁大小
func (q FilterQuery) Cleared() FilterQuery {
	return FilterQuery{Page: 1, PerPage: q.PerPage}
}

func (q FilterQuery) Normalize() FilterQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	return q
}

func (q FilterQuery) Offset() int {
	q = q.Normalize()
	return (q.Page - 1) * q.PerPage
}

// HasFilters 是否有分頁以外的條件
func (q FilterQuery) HasFilters() bool {
	return q.Search != "" || q.Status != "" || q.Type != "" || q.Currency != "" ||
		q.DateFrom != nil || q.DateTo != nil ||
		q.ExpirationDateFrom != nil || q.ExpirationDateTo != nil
}

// Values 轉成 querystring
func (q FilterQuery) Values() url.Values {
	v := url.Values{}
	setString(v, "search", q.Search)
	setString(v, "status", q.Status)
	setString(v, "type", q.Type)
	setString(v, "currency", q.Currency)
	setDate(v, "dateFrom", q.DateFrom)
	setDate(v, "dateTo", q.DateTo)
	setDate(v, "expirationDateFrom", q.ExpirationDateFrom)
	setDate(v, "expirationDateTo", q.ExpirationDateTo)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(q.PerPage))
	}
	return v
}

// Key 用於比對兩個查詢是否相同
func (q FilterQuery) Key() string {
	return q.Values().Encode()
}

// ParseDate 解析 YYYY-MM-DD 或 RFC3339，空字串回傳 nil
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setDate(v url.Values, key string, value *time.Time) {
	if value != nil {
		v.Set(key, value.Format(DateLayout))
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
