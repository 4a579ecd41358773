package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"go-gin-gift-admin/internal/export"
	"go-gin-gift-admin/internal/fetcher"
	"go-gin-gift-admin/internal/model"

	"github.com/spf13/pflag"
)

// filterFlags 與 API querystring 對應的篩選旗標
type filterFlags struct {
	search, status, typ, currency string
	dateFrom, dateTo              string
	expirationFrom, expirationTo  string
	page, perPage                 int
}

func (f *filterFlags) define(fs *pflag.FlagSet, perPage int) {
	fs.StringVar(&f.search, "search", "", "free text search")
	fs.StringVar(&f.status, "status", "", "status filter")
	fs.StringVar(&f.typ, "type", "", "transaction type (credit, debit)")
	fs.StringVar(&f.currency, "currency", "", "currency code")
	fs.StringVar(&f.dateFrom, "from", "", "created on or after, YYYY-MM-DD")
	fs.StringVar(&f.dateTo, "to", "", "created on or before, YYYY-MM-DD")
	fs.StringVar(&f.expirationFrom, "expires-from", "", "expiring on or after, YYYY-MM-DD")
	fs.StringVar(&f.expirationTo, "expires-to", "", "expiring on or before, YYYY-MM-DD")
	fs.IntVar(&f.page, "page", 1, "page number")
	fs.IntVar(&f.perPage, "per-page", perPage, "rows per page")
}

func (f *filterFlags) query() (model.FilterQuery, error) {
	var dates [4]*time.Time
	for i, raw := range []string{f.dateFrom, f.dateTo, f.expirationFrom, f.expirationTo} {
		d, err := model.ParseDate(raw)
		if err != nil {
			return model.FilterQuery{}, fmt.Errorf("%w: invalid date %q", errUsage, raw)
		}
		dates[i] = d
	}
	return model.NewFilterQuery(f.perPage).
		WithSearch(f.search).
		WithStatus(f.status).
		WithType(f.typ).
		WithCurrency(f.currency).
		WithDateRange(dates[0], dates[1]).
		WithExpirationRange(dates[2], dates[3]).
		WithPage(f.page), nil
}

func runHistory(ctx context.Context, a *app, args []string) error {
	var filters filterFlags
	if _, err := parseCommand("history", args, func(fs *pflag.FlagSet) {
		filters.define(fs, a.cfg.Fetch.PerPage)
	}); err != nil {
		return err
	}
	q, err := filters.query()
	if err != nil {
		return err
	}

	f := fetcher.New(a.client.TicketHistory, q, fetcher.WithClock(a.clock))
	defer f.Close()
	page, err := f.Fetch(ctx, q)
	if err != nil {
		return err
	}
	a.printTickets(page)
	return nil
}

func runTransactions(ctx context.Context, a *app, args []string) error {
	var filters filterFlags
	rest, err := parseCommand("transactions", args, func(fs *pflag.FlagSet) {
		filters.define(fs, a.cfg.Fetch.PerPage)
	})
	if err != nil {
		return err
	}
	q, err := filters.query()
	if err != nil {
		return err
	}

	fetch := a.client.WalletTransactions
	if len(rest) > 0 && rest[0] == string(model.ProviderSerdipay) {
		fetch = a.client.SerdipayTransactions
	}
	f := fetcher.New(fetch, q, fetcher.WithClock(a.clock))
	defer f.Close()
	page, err := f.Fetch(ctx, q)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REFERENCE\tUSER\tTYPE\tSTATUS\tAMOUNT\tDATE")
	for _, t := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f %s\t%s\n",
			t.Reference, t.User.Name, t.Type, t.Status, t.Amount, t.Currency, t.CreatedAt.Format(model.DateLayout))
	}
	w.Flush()
	printPager(a.out, page.Page, page.LastPage, page.TotalCount)
	return nil
}

// runSearch 每讀到一行就更新搜尋文字，停止輸入超過 debounce 才送出查詢
func runSearch(ctx context.Context, a *app, args []string) error {
	var filters filterFlags
	if _, err := parseCommand("search", args, func(fs *pflag.FlagSet) {
		filters.define(fs, a.cfg.Fetch.PerPage)
	}); err != nil {
		return err
	}
	q, err := filters.query()
	if err != nil {
		return err
	}

	f := fetcher.New(a.client.TicketHistory, q,
		fetcher.WithClock(a.clock),
		fetcher.WithDebounce(a.cfg.Fetch.SearchDebounce),
	)
	defer f.Close()

	var mu sync.Mutex
	f.OnChange(func(s fetcher.State[*model.Ticket]) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case s.InitialLoading, s.Refreshing:
			fmt.Fprintf(a.out, "searching %q...\n", s.Query.Search)
		case s.Err != nil:
			fmt.Fprintf(a.out, "search failed: %v\n", s.Err)
		default:
			a.printTickets(s.Page)
		}
	})
	f.Load()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		f.SetSearch(strings.TrimSpace(scanner.Text()))
	}
	// 輸入結束時送出仍在 debounce 中的查詢
	if f.Draft().Key() != f.State().Query.Key() {
		f.Load()
	}
	f.Wait()
	return scanner.Err()
}

func runExport(ctx context.Context, a *app, args []string) error {
	var (
		filters filterFlags
		scope   string
		dir     string
		server  bool
	)
	rest, err := parseCommand("export", args, func(fs *pflag.FlagSet) {
		filters.define(fs, a.cfg.Fetch.PerPage)
		fs.StringVar(&scope, "scope", string(export.ScopeFiltered), "current_page, filtered or all")
		fs.StringVar(&dir, "dir", a.cfg.Export.Dir, "output directory")
		fs.BoolVar(&server, "server", false, "let the server build the wallet export")
	})
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("%w: export expects one of tickets, wallet, serdipay, gifts", errUsage)
	}
	q, err := filters.query()
	if err != nil {
		return err
	}

	if server {
		if rest[0] != string(model.ProviderWallet) {
			return fmt.Errorf("%w: --server only supports wallet", errUsage)
		}
		return a.serverExport(ctx, q, dir)
	}

	formatter, err := export.NewFormatter(a.cfg.Export)
	if err != nil {
		return err
	}
	s := export.Scope(scope)
	switch rest[0] {
	case "tickets":
		return exportReport(ctx, a, "ticket_history", a.client.TicketHistory,
			export.TicketHistoryMapper(formatter, a.clock.Now), s, q, dir)
	case string(model.ProviderWallet):
		return exportReport(ctx, a, "wallet_transactions", a.client.WalletTransactions,
			export.WalletTransactionMapper(formatter), s, q, dir)
	case string(model.ProviderSerdipay):
		return exportReport(ctx, a, "serdipay_transactions", a.client.SerdipayTransactions,
			export.WalletTransactionMapper(formatter), s, q, dir)
	case "gifts":
		return exportReport(ctx, a, "gifts", a.client.Gifts, export.GiftMapper(formatter), s, q, dir)
	}
	return fmt.Errorf("%w: unknown report %q", errUsage, rest[0])
}

func exportReport[T any](ctx context.Context, a *app, report string, fetch export.FetchFunc[T],
	mapper export.Mapper[T], scope export.Scope, q model.FilterQuery, dir string) error {
	p := export.NewPipeline(report, fetch, mapper, export.WithClock(a.clock))

	var (
		result export.Result
		err    error
	)
	switch scope {
	case export.ScopeCurrentPage:
		page, ferr := fetch(ctx, q)
		if ferr != nil {
			return ferr
		}
		result = p.CurrentPage(page.Items, page.Page)
	case export.ScopeFiltered:
		result, err = p.Filtered(ctx, q)
	case export.ScopeAll:
		result, err = p.All(ctx, q)
	default:
		return fmt.Errorf("%w: unknown scope %q", errUsage, scope)
	}
	if err != nil {
		return err
	}
	if !result.OK() {
		fmt.Fprintln(a.out, result.Rejection.Message)
		return nil
	}

	path, err := result.Job.Save(dir)
	if err != nil {
		return fmt.Errorf("save export: %w", err)
	}
	fmt.Fprintf(a.out, "exported %d rows to %s\n", len(result.Job.Records), path)
	return nil
}

func (a *app) serverExport(ctx context.Context, q model.FilterQuery, dir string) error {
	var buf bytes.Buffer
	filename, err := a.client.ExportWalletTransactions(ctx, q, &buf)
	if err != nil {
		var rejection *model.Rejection
		if errors.As(err, &rejection) {
			fmt.Fprintln(a.out, rejection.Message)
			return nil
		}
		return err
	}

	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save export: %w", err)
	}
	fmt.Fprintf(a.out, "exported to %s\n", path)
	return nil
}

func (a *app) printTickets(page model.Page[*model.Ticket]) {
	now := a.clock.Now()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tGIFT\tBENEFICIARY\tSTATE\tEXPIRES\tDISTRIBUTOR")
	for _, t := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.CodeVerification, t.Gift.Name, t.Beneficiary.Name, t.EffectiveState(now),
			t.ExpirationAt.Format(model.DateLayout), t.DistributorName())
	}
	w.Flush()
	printPager(a.out, page.Page, page.LastPage, page.TotalCount)
}

func printPager(out io.Writer, page, lastPage, total int) {
	fmt.Fprintf(out, "page %d of %d (%d total)\n", page, lastPage, total)
}
