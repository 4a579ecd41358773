package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go-gin-gift-admin/internal/model"
	"go-gin-gift-admin/pkg/clock"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/logger"

	"go.uber.org/zap"
)

type Scope string

const (
	ScopeCurrentPage Scope = "current_page"
	ScopeFiltered    Scope = "filtered"
	ScopeAll         Scope = "all"
)

// FetchFunc 與 fetcher 使用相同的簽名
type FetchFunc[T any] func(ctx context.Context, q model.FilterQuery) (model.Page[T], error)

// Job 一次匯出的結果，只存在於該次操作期間
type Job struct {
	Scope    Scope
	Query    model.FilterQuery
	Records  []FlatRecord
	Filename string
}

func (j *Job) WriteCSV(w io.Writer) error {
	return WriteCSV(w, j.Records)
}

// Save 寫入 dir/Filename，回傳完整路徑
func (j *Job) Save(dir string) (string, error) {
	path := filepath.Join(dir, j.Filename)
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := j.WriteCSV(file); err != nil {
		file.Close()
		return "", err
	}
	return path, file.Close()
}

// Result 成功時 Job 不為 nil；沒有資料或重複匯出時為 Rejection
type Result struct {
	Job       *Job
	Rejection *model.Rejection
}

func (r Result) OK() bool {
	return r.Rejection == nil
}

type options struct {
	clock clock.Clock
	ext   string
	log   *zap.Logger
}

type Option func(*options)

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithExtension(ext string) Option {
	return func(o *options) { o.ext = ext }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// Pipeline 將集合轉成匯出列。同一個 scope 同時只允許一個匯出。
type Pipeline[T any] struct {
	report string
	fetch  FetchFunc[T]
	mapper Mapper[T]
	opts   options

	mu       sync.Mutex
	inflight map[Scope]bool
}

func NewPipeline[T any](report string, fetch FetchFunc[T], mapper Mapper[T], opts ...Option) *Pipeline[T] {
	o := options{
		clock: clock.Real(),
		ext:   "csv",
		log:   logger.WithComponent("export"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline[T]{
		report:   report,
		fetch:    fetch,
		mapper:   mapper,
		opts:     o,
		inflight: make(map[Scope]bool),
	}
}

// CurrentPage 只轉換已在記憶體中的資料，不發出任何請求
func (p *Pipeline[T]) CurrentPage(items []T, page int) Result {
	if !p.acquire(ScopeCurrentPage) {
		return Result{Rejection: model.NewRejection(apperrors.ErrExportInProgress, nil)}
	}
	defer p.release(ScopeCurrentPage)

	if len(items) == 0 {
		return Result{Rejection: model.NewRejection(apperrors.ErrNothingToExport, nil)}
	}

	return Result{Job: &Job{
		Scope:    ScopeCurrentPage,
		Records:  p.mapAll(items),
		Filename: p.Filename(ScopeCurrentPage, page),
	}}
}

// Filtered 以相同篩選條件重新查詢全部資料
func (p *Pipeline[T]) Filtered(ctx context.Context, q model.FilterQuery) (Result, error) {
	return p.run(ctx, ScopeFiltered, q.Unbounded())
}

// All 清除 q 的所有篩選條件後查詢全部資料
func (p *Pipeline[T]) All(ctx context.Context, q model.FilterQuery) (Result, error) {
	return p.run(ctx, ScopeAll, q.Cleared().Unbounded())
}

func (p *Pipeline[T]) run(ctx context.Context, scope Scope, q model.FilterQuery) (Result, error) {
	if !p.acquire(scope) {
		return Result{Rejection: model.NewRejection(apperrors.ErrExportInProgress, nil)}, nil
	}
	defer p.release(scope)

	log := p.opts.log.With(zap.String("report", p.report), zap.String("scope", string(scope)))

	items, err := p.fetchAll(ctx, q)
	if err != nil {
		var rejection *model.Rejection
		if errors.As(err, &rejection) {
			log.Warn("export rejected by server", zap.String("message", rejection.Message))
			return Result{Rejection: &model.Rejection{
				Err:     apperrors.ErrNothingToExport,
				Message: rejection.Message,
			}}, nil
		}
		log.Error("export fetch failed", zap.Error(err))
		return Result{}, fmt.Errorf("export %s: %w", p.report, err)
	}

	if len(items) == 0 {
		log.Info("nothing to export")
		return Result{Rejection: model.NewRejection(apperrors.ErrNothingToExport, nil)}, nil
	}

	job := &Job{
		Scope:    scope,
		Query:    q,
		Records:  p.mapAll(items),
		Filename: p.Filename(scope, 0),
	}
	log.Info("export ready", zap.Int("records", len(job.Records)), zap.String("filename", job.Filename))
	return Result{Job: job}, nil
}

// fetchAll 伺服器限制單頁大小時，繼續讀取後續頁面。
// 頁數上限取自第一次回應的 LastPage；伺服器回傳的頁碼與請求不同時停止，避免無限迴圈
func (p *Pipeline[T]) fetchAll(ctx context.Context, q model.FilterQuery) ([]T, error) {
	var (
		items    []T
		lastPage int
	)
	for {
		page, err := p.fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if lastPage == 0 {
			lastPage = page.LastPage
		}

		switch {
		case len(page.Items) == 0,
			page.Page != q.Page,
			q.Page >= lastPage,
			page.TotalCount > 0 && len(items) >= page.TotalCount:
			return items, nil
		}
		q = q.WithPage(q.Page + 1)
	}
}

func (p *Pipeline[T]) mapAll(items []T) []FlatRecord {
	records := make([]FlatRecord, 0, len(items))
	for _, item := range items {
		records = append(records, p.mapper(item))
	}
	return records
}

// Filename {report}_{page_N|filtered|complete}_{YYYY-MM-DD}.{ext}
func (p *Pipeline[T]) Filename(scope Scope, page int) string {
	var suffix string
	switch scope {
	case ScopeCurrentPage:
		suffix = fmt.Sprintf("page_%d", page)
	case ScopeFiltered:
		suffix = "filtered"
	default:
		suffix = "complete"
	}
	return fmt.Sprintf("%s_%s_%s.%s", p.report, suffix, p.opts.clock.Now().Format(model.DateLayout), p.opts.ext)
}

func (p *Pipeline[T]) acquire(scope Scope) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[scope] {
		return false
	}
	p.inflight[scope] = true
	return true
}

func (p *Pipeline[T]) release(scope Scope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, scope)
}
