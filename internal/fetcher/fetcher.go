// Package fetcher loads one page of a filtered collection at a time.
// Free-text search is debounced, every other filter change fetches at
// once, and only the most recently issued request may update state.
package fetcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-gin-gift-admin/internal/model"
	"go-gin-gift-admin/pkg/clock"
	"go-gin-gift-admin/pkg/logger"

	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrSuperseded 回應抵達時已有更新的請求，結果被丟棄
	ErrSuperseded = errors.New("fetch superseded by a newer query")
	ErrClosed     = errors.New("fetcher closed")
)

type FetchFunc[T any] func(ctx context.Context, q model.FilterQuery) (model.Page[T], error)

// State 呼叫端渲染所需的全部狀態
type State[T any] struct {
	// Query 最後一次發出的查詢
	Query model.FilterQuery
	// Page 最後一次成功的結果；錯誤時保留舊資料
	Page   model.Page[T]
	Loaded bool
	// InitialLoading 尚未有任何資料時的載入；Refreshing 保留舊資料的重新載入
	InitialLoading bool
	Refreshing     bool
	Err            error
}

type options struct {
	clock    clock.Clock
	debounce time.Duration
	log      *zap.Logger
}

type Option func(*options)

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

type Fetcher[T any] struct {
	fetch FetchFunc[T]
	opts  options

	// ctx 在 Close 時取消，所有請求都衍生自它
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	seq       uint64
	draft     model.FilterQuery
	timer     *clock.Timer
	state     State[T]
	listeners []func(State[T])
	closed    bool
}

type request struct {
	seq    uint64
	query  model.FilterQuery
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool
}

func New[T any](fetch FetchFunc[T], initial model.FilterQuery, opts ...Option) *Fetcher[T] {
	o := options{
		clock:    clock.Real(),
		debounce: DefaultDebounce,
		log:      logger.WithComponent("fetcher"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	initial = initial.Normalize()
	return &Fetcher[T]{
		fetch:  fetch,
		opts:   o,
		ctx:    ctx,
		cancel: cancel,
		draft:  initial,
		state:  State[T]{Query: initial},
	}
}

// OnChange 每次狀態改變時呼叫 fn，可能在背景 goroutine 執行
func (f *Fetcher[T]) OnChange(fn func(State[T])) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

func (f *Fetcher[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft 目前輸入中的查詢，包含尚未送出的搜尋文字
func (f *Fetcher[T]) Draft() model.FilterQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Fetch 同步發出查詢。若在回應前有更新的查詢發出，回傳 ErrSuperseded 且不更新狀態
func (f *Fetcher[T]) Fetch(ctx context.Context, q model.FilterQuery) (model.Page[T], error) {
	req, err := f.issue(ctx, q)
	if err != nil {
		return model.Page[T]{}, err
	}
	return f.run(req)
}

// Load 以目前的 draft 非同步載入
func (f *Fetcher[T]) Load() {
	f.mu.Lock()
	f.stopTimerLocked()
	q := f.draft
	f.mu.Unlock()
	f.load(q)
}

// SetSearch 重新計時，debounce 期間沒有新的輸入才送出
func (f *Fetcher[T]) SetSearch(text string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.draft = f.draft.WithSearch(text)
	f.stopTimerLocked()

	if f.opts.debounce <= 0 {
		q := f.draft
		f.mu.Unlock()
		f.load(q)
		return
	}

	var timer *clock.Timer
	timer = f.opts.clock.AfterFunc(f.opts.debounce, func() {
		f.mu.Lock()
		if f.timer != timer || f.closed {
			f.mu.Unlock()
			return
		}
		f.timer = nil
		q := f.draft
		f.mu.Unlock()
		f.load(q)
	})
	f.timer = timer
	f.mu.Unlock()
}

// ApplyFilter 立即查詢並回到第一頁；尚未送出的搜尋文字一併帶入
func (f *Fetcher[T]) ApplyFilter(fn func(model.FilterQuery) model.FilterQuery) {
	f.mu.Lock()
	f.stopTimerLocked()
	q := fn(f.draft)
	q.Page = 1
	f.draft = q
	f.mu.Unlock()
	f.load(q)
}

func (f *Fetcher[T]) SetPage(page int) {
	f.mu.Lock()
	f.stopTimerLocked()
	f.draft = f.draft.WithPage(page)
	q := f.draft
	f.mu.Unlock()
	f.load(q)
}

// Retry 重送最後一次的查詢，不會自動重試
func (f *Fetcher[T]) Retry() {
	f.mu.Lock()
	q := f.state.Query
	f.mu.Unlock()
	f.load(q)
}

// Wait 等待所有背景請求結束
func (f *Fetcher[T]) Wait() {
	f.wg.Wait()
}

// Close 停止計時器並取消進行中的請求，之後抵達的回應一律丟棄
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	f.closed = true
	f.stopTimerLocked()
	f.listeners = nil
	f.mu.Unlock()
	f.cancel()
}

func (f *Fetcher[T]) stopTimerLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *Fetcher[T]) load(q model.FilterQuery) {
	req, err := f.issue(f.ctx, q)
	if err != nil {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		_, _ = f.run(req)
	}()
}

// issue 在呼叫端的 goroutine 內分配序號，確保序號與發出順序一致
func (f *Fetcher[T]) issue(ctx context.Context, q model.FilterQuery) (*request, error) {
	q = q.Normalize()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	f.seq++
	seq := f.seq
	f.draft = q
	f.state.Query = q
	f.state.Err = nil
	if f.state.Loaded {
		f.state.Refreshing = true
	} else {
		f.state.InitialLoading = true
	}
	snapshot, listeners := f.state, f.listeners
	f.mu.Unlock()

	notify(listeners, snapshot)

	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(f.ctx, cancel)
	return &request{seq: seq, query: q, ctx: reqCtx, cancel: cancel, stop: stop}, nil
}

func (f *Fetcher[T]) run(req *request) (model.Page[T], error) {
	defer func() {
		req.stop()
		req.cancel()
	}()

	page, err := f.fetch(req.ctx, req.query)

	f.mu.Lock()
	if f.closed || req.seq != f.seq {
		f.mu.Unlock()
		f.opts.log.Debug("discarding stale response",
			zap.Uint64("seq", req.seq), zap.String("query", req.query.Key()))
		return model.Page[T]{}, ErrSuperseded
	}
	f.state.InitialLoading = false
	f.state.Refreshing = false
	if err != nil {
		f.state.Err = err
	} else {
		f.state.Page = page
		f.state.Loaded = true
		f.state.Err = nil
	}
	snapshot, listeners := f.state, f.listeners
	f.mu.Unlock()

	if err != nil {
		f.opts.log.Warn("fetch failed", zap.String("query", req.query.Key()), zap.Error(err))
	}
	notify(listeners, snapshot)
	return page, err
}

func notify[T any](listeners []func(State[T]), s State[T]) {
	for _, fn := range listeners {
		fn(s)
	}
}
