package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-gin-gift-admin/internal/model"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	today = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	alice = model.User{ID: 1, Name: "Alice", Email: "alice@example.com"}
	bob   = model.User{ID: 2, Name: "Bob", Email: "bob@example.com"}
)

// fakeServer 以與正式伺服器相同的規則處理請求
type fakeServer struct {
	mu        sync.Mutex
	clock     clock.Clock
	tickets   map[int]*model.Ticket
	lookups   atomic.Int32
	mutations atomic.Int32
	fault     error
}

func newFakeServer(c clock.Clock, tickets ...*model.Ticket) *fakeServer {
	s := &fakeServer{clock: c, tickets: make(map[int]*model.Ticket)}
	for _, t := range tickets {
		s.tickets[t.ID] = t
	}
	return s
}

func (s *fakeServer) as(actor model.User) *fakeAPI {
	return &fakeAPI{server: s, actor: actor}
}

type fakeAPI struct {
	server *fakeServer
	actor  model.User
}

func (a *fakeAPI) LookupTicket(_ context.Context, code string) (*model.Ticket, error) {
	s := a.server
	s.lookups.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.CodeVerification == code {
			c := *t
			return &c, nil
		}
	}
	return nil, model.NewRejection(apperrors.ErrTicketNotFound, nil)
}

func (a *fakeAPI) ConsumeTicket(_ context.Context, id int) (*model.Ticket, error) {
	s := a.server
	s.mutations.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault != nil {
		return nil, s.fault
	}
	t, ok := s.tickets[id]
	if !ok {
		return nil, model.NewRejection(apperrors.ErrTicketNotFound, nil)
	}
	now := s.clock.Now()
	if err := t.CheckConsume(now, a.actor.ID); err != nil {
		c := *t
		return nil, model.NewRejection(err, &c)
	}
	actor := a.actor
	t.State = model.TicketStateConsumed
	t.ConsumedAt = &now
	t.Distributor = &actor
	c := *t
	return &c, nil
}

func (a *fakeAPI) ScheduleTicket(_ context.Context, id int, when time.Time) (*model.Ticket, error) {
	s := a.server
	s.mutations.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, model.NewRejection(apperrors.ErrTicketNotFound, nil)
	}
	if err := t.CheckSchedule(s.clock.Now(), when, a.actor.ID); err != nil {
		c := *t
		return nil, model.NewRejection(err, &c)
	}
	actor := a.actor
	t.State = model.TicketStateScheduled
	t.ScheduledFor = &when
	t.Distributor = &actor
	c := *t
	return &c, nil
}

func freshTicket(id int, code string, expiration time.Time) *model.Ticket {
	return &model.Ticket{
		ID:               id,
		CodeVerification: code,
		Gift:             model.Gift{ID: 7, Name: "Voucher", Value: 20, Currency: "USD"},
		Beneficiary:      model.User{ID: 9, Name: "Amani"},
		State:            model.TicketStateNotConsumed,
		ExpirationAt:     expiration,
	}
}

func newLifecycle(api API, actor model.User, c clock.Clock) *Lifecycle {
	return New(api, actor, WithClock(c), WithLogger(zap.NewNop()))
}

func TestLifecycle_Lookup(t *testing.T) {
	ctx := context.Background()
	c := clock.Fake(today)
	server := newFakeServer(c, freshTicket(1, "GIFT-001", today.Add(24*time.Hour)))
	lc := newLifecycle(server.as(alice), alice, c)

	t.Run("Success", func(t *testing.T) {
		outcome, err := lc.Lookup(ctx, "  GIFT-001 ")
		require.NoError(t, err)
		require.True(t, outcome.OK())
		assert.Equal(t, 1, outcome.Ticket.ID)
	})

	t.Run("Failed - empty code never reaches the server", func(t *testing.T) {
		before := server.lookups.Load()
		_, err := lc.Lookup(ctx, "   ")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Equal(t, before, server.lookups.Load())
	})

	t.Run("Failed - not found", func(t *testing.T) {
		outcome, err := lc.Lookup(ctx, "NOPE")
		require.NoError(t, err)
		require.False(t, outcome.OK())
		assert.ErrorIs(t, outcome.Rejection, apperrors.ErrTicketNotFound)
		assert.Equal(t, apperrors.CodeNotFound, outcome.Rejection.Code())
	})
}

// gatedAPI 查詢在 release 關閉前不會回應
type gatedAPI struct {
	*fakeAPI
	started chan struct{}
	release chan struct{}
	once    sync.Once
	ctxErr  atomic.Value
}

func newGatedAPI(api *fakeAPI) *gatedAPI {
	return &gatedAPI{fakeAPI: api, started: make(chan struct{}), release: make(chan struct{})}
}

func (a *gatedAPI) LookupTicket(ctx context.Context, code string) (*model.Ticket, error) {
	a.once.Do(func() { close(a.started) })
	<-a.release
	if err := ctx.Err(); err != nil {
		a.ctxErr.Store(err)
		return nil, err
	}
	return a.fakeAPI.LookupTicket(ctx, code)
}

func TestLifecycle_LookupCollapsesConcurrentCalls(t *testing.T) {
	c := clock.Fake(today)
	server := newFakeServer(c, freshTicket(1, "GIFT-001", today.Add(24*time.Hour)))
	api := newGatedAPI(server.as(alice))
	lc := newLifecycle(api, alice, c)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 5)
	errs := make([]error, 5)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = lc.Lookup(context.Background(), "GIFT-001")
		}(i)
	}
	<-api.started
	time.Sleep(50 * time.Millisecond)
	close(api.release)
	wg.Wait()

	for i := range outcomes {
		require.NoError(t, errs[i])
		require.True(t, outcomes[i].OK())
		assert.Equal(t, 1, outcomes[i].Ticket.ID)
	}
	assert.Equal(t, int32(1), server.lookups.Load())
}

func TestLifecycle_LookupCancelIsPerCaller(t *testing.T) {
	c := clock.Fake(today)
	server := newFakeServer(c, freshTicket(1, "GIFT-001", today.Add(24*time.Hour)))
	api := newGatedAPI(server.as(alice))
	lc := newLifecycle(api, alice, c)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	errA := make(chan error, 1)
	go func() {
		_, err := lc.Lookup(ctxA, "GIFT-001")
		errA <- err
	}()
	<-api.started

	type result struct {
		outcome Outcome
		err     error
	}
	resB := make(chan result, 1)
	go func() {
		outcome, err := lc.Lookup(context.Background(), "GIFT-001")
		resB <- result{outcome, err}
	}()
	time.Sleep(50 * time.Millisecond)

	// 第一個呼叫者離開，不影響仍在等待的呼叫者
	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(api.release)
	b := <-resB
	require.NoError(t, b.err)
	require.True(t, b.outcome.OK())
	assert.Equal(t, "GIFT-001", b.outcome.Ticket.CodeVerification)
	assert.Nil(t, api.ctxErr.Load())
}

func TestLifecycle_ConsumeTwiceIssuesOneMutation(t *testing.T) {
	ctx := context.Background()
	c := clock.Fake(today)
	server := newFakeServer(c, freshTicket(5, "GIFT-005", today.Add(24*time.Hour)))
	lc := newLifecycle(server.as(alice), alice, c)

	first, err := lc.Consume(ctx, 5)
	require.NoError(t, err)
	require.True(t, first.OK())
	assert.Equal(t, model.TicketStateConsumed, first.Ticket.State)
	assert.Equal(t, alice.ID, first.Ticket.Distributor.ID)
	require.NotNil(t, first.Ticket.ConsumedAt)

	second, err := lc.Consume(ctx, 5)
	require.NoError(t, err)
	require.False(t, second.OK())
	assert.ErrorIs(t, second.Rejection, apperrors.ErrTicketAlreadyConsumed)
	assert.Equal(t, int32(1), server.mutations.Load())
}

func TestLifecycle_ConsumeRetryAfterTransportFault(t *testing.T) {
	ctx := context.Background()
	c := clock.Fake(today)
	server := newFakeServer(c, freshTicket(5, "GIFT-005", today.Add(24*time.Hour)))
	lc := newLifecycle(server.as(alice), alice, c)

	server.fault = errors.New("i/o timeout")
	_, err := lc.Consume(ctx, 5)
	require.Error(t, err)

	server.fault = nil
	outcome, err := lc.Consume(ctx, 5)
	require.NoError(t, err)
	assert.True(t, outcome.OK())
}

func TestLifecycle_ServerRejectionIsCached(t *testing.T) {
	ctx := context.Background()
	c := clock.Fake(today)
	ticket := freshTicket(6, "GIFT-006", today.Add(24*time.Hour))
	server := newFakeServer(c, ticket)

	// Bob 兌換後，Alice 的快取仍是舊的
	_, err := newLifecycle(server.as(bob), bob, c).Consume(ctx, 6)
	require.NoError(t, err)

	lc := newLifecycle(server.as(alice), alice, c)
	outcome, err := lc.Consume(ctx, 6)
	require.NoError(t, err)
	require.False(t, outcome.OK())
	assert.ErrorIs(t, outcome.Rejection, apperrors.ErrTicketAlreadyConsumed)
	assert.Contains(t, outcome.Rejection.Message, "Bob")
	require.NotNil(t, outcome.Ticket)

	mutations := server.mutations.Load()
	_, err = lc.Consume(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, mutations, server.mutations.Load())
}

func TestLifecycle_Schedule(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - today is allowed", func(t *testing.T) {
		c := clock.Fake(today)
		server := newFakeServer(c, freshTicket(1, "GIFT-001", today.Add(72*time.Hour)))
		lc := newLifecycle(server.as(alice), alice, c)

		outcome, err := lc.Schedule(ctx, 1, today.Add(-time.Hour))
		require.NoError(t, err)
		require.True(t, outcome.OK())
		assert.Equal(t, clock.StartOfDay(today), *outcome.Ticket.ScheduledFor)
	})

	t.Run("Failed - yesterday never reaches the server", func(t *testing.T) {
		c := clock.Fake(today)
		server := newFakeServer(c, freshTicket(1, "GIFT-001", today.Add(72*time.Hour)))
		lc := newLifecycle(server.as(alice), alice, c)

		yesterday := clock.StartOfDay(today).Add(-time.Nanosecond)
		outcome, err := lc.Schedule(ctx, 1, yesterday)
		require.NoError(t, err)
		require.False(t, outcome.OK())
		assert.ErrorIs(t, outcome.Rejection, apperrors.ErrInvalidScheduleDate)
		assert.Equal(t, int32(0), server.mutations.Load())
	})

	t.Run("Failed - missing date", func(t *testing.T) {
		c := clock.Fake(today)
		server := newFakeServer(c)
		lc := newLifecycle(server.as(alice), alice, c)

		_, err := lc.Schedule(ctx, 1, time.Time{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Equal(t, int32(0), server.mutations.Load())
	})

	t.Run("Failed - reschedule requires a scheduled ticket", func(t *testing.T) {
		c := clock.Fake(today)
		server := newFakeServer(c, freshTicket(1, "GIFT-001", today.Add(72*time.Hour)))
		lc := newLifecycle(server.as(alice), alice, c)

		_, err := lc.Lookup(ctx, "GIFT-001")
		require.NoError(t, err)

		outcome, err := lc.Reschedule(ctx, 1, today.Add(24*time.Hour))
		require.NoError(t, err)
		assert.ErrorIs(t, outcome.Rejection, apperrors.ErrTicketNotScheduled)
		assert.Equal(t, int32(0), server.mutations.Load())
	})
}

func TestLifecycle_ExpiredTicketScenario(t *testing.T) {
	ctx := context.Background()
	c := clock.Fake(today)
	server := newFakeServer(c, freshTicket(3, "GIFT-001", today.Add(-24*time.Hour)))
	lc := newLifecycle(server.as(alice), alice, c)

	lookup, err := lc.Lookup(ctx, "GIFT-001")
	require.NoError(t, err)
	require.True(t, lookup.OK())
	assert.Equal(t, model.TicketStateNotConsumed, lookup.Ticket.State)
	assert.True(t, lc.IsExpired(lookup.Ticket))

	actions := lc.Actions(lookup.Ticket)
	assert.False(t, actions.CanConsume)
	assert.False(t, actions.CanSchedule)
	assert.NotEmpty(t, actions.Notice)

	outcome, err := lc.Consume(ctx, lookup.Ticket.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, outcome.Rejection, apperrors.ErrTicketExpired)
	assert.Equal(t, int32(0), server.mutations.Load())
}

func TestLifecycle_ScheduledOwnershipScenario(t *testing.T) {
	ctx := context.Background()
	c := clock.Fake(today)
	server := newFakeServer(c, freshTicket(42, "GIFT-042", today.Add(7*24*time.Hour)))
	store := NewMemoryStore()

	a := New(server.as(alice), alice, WithClock(c), WithStore(store), WithLogger(zap.NewNop()))
	b := New(server.as(bob), bob, WithClock(c), WithStore(store), WithLogger(zap.NewNop()))

	scheduled, err := a.Schedule(ctx, 42, today.Add(24*time.Hour))
	require.NoError(t, err)
	require.True(t, scheduled.OK())
	assert.Equal(t, model.TicketStateScheduled, scheduled.Ticket.State)
	assert.Equal(t, alice.ID, scheduled.Ticket.Distributor.ID)

	mutations := server.mutations.Load()
	refused, err := b.Consume(ctx, 42)
	require.NoError(t, err)
	require.False(t, refused.OK())
	assert.ErrorIs(t, refused.Rejection, apperrors.ErrNotTicketOwner)
	assert.Contains(t, refused.Rejection.Message, "Alice")
	assert.Equal(t, mutations, server.mutations.Load())

	bActions := b.Actions(scheduled.Ticket)
	assert.False(t, bActions.CanConsume)
	assert.False(t, bActions.CanReschedule)
	assert.Contains(t, bActions.Notice, "Alice")

	aActions := a.Actions(scheduled.Ticket)
	assert.True(t, aActions.CanConsume)
	assert.True(t, aActions.CanReschedule)

	rescheduled, err := a.Reschedule(ctx, 42, today.Add(48*time.Hour))
	require.NoError(t, err)
	require.True(t, rescheduled.OK())

	consumed, err := a.Consume(ctx, 42)
	require.NoError(t, err)
	require.True(t, consumed.OK())
	assert.Equal(t, model.TicketStateConsumed, consumed.Ticket.State)
}

func TestLifecycle_ServerRevalidatesStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	c := clock.Fake(today)
	server := newFakeServer(c, freshTicket(8, "GIFT-008", today.Add(7*24*time.Hour)))

	lc := newLifecycle(server.as(bob), bob, c)
	_, err := lc.Lookup(ctx, "GIFT-008")
	require.NoError(t, err)

	// Alice 在 Bob 查詢後排程
	_, err = newLifecycle(server.as(alice), alice, c).Schedule(ctx, 8, today)
	require.NoError(t, err)

	outcome, err := lc.Consume(ctx, 8)
	require.NoError(t, err)
	require.False(t, outcome.OK())
	assert.ErrorIs(t, outcome.Rejection, apperrors.ErrNotTicketOwner)
	assert.Equal(t, model.TicketStateScheduled, outcome.Ticket.State)
}
