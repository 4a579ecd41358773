package main

import (
	"context"
	"fmt"
	"time"

	"go-gin-gift-admin/internal/lifecycle"
	"go-gin-gift-admin/internal/model"

	"github.com/spf13/pflag"
)

func runLookup(ctx context.Context, a *app, args []string) error {
	code, err := ticketCode("lookup", args, nil)
	if err != nil {
		return err
	}
	outcome, err := a.lifecycle.Lookup(ctx, code)
	if err != nil {
		return err
	}
	a.printOutcome(outcome)
	return nil
}

func runConsume(ctx context.Context, a *app, args []string) error {
	code, err := ticketCode("consume", args, nil)
	if err != nil {
		return err
	}
	return a.mutate(ctx, code, func(id int) (lifecycle.Outcome, error) {
		return a.lifecycle.Consume(ctx, id)
	})
}

func runSchedule(ctx context.Context, a *app, args []string) error {
	return a.schedule(ctx, "schedule", args, a.lifecycle.Schedule)
}

func runReschedule(ctx context.Context, a *app, args []string) error {
	return a.schedule(ctx, "reschedule", args, a.lifecycle.Reschedule)
}

func (a *app) schedule(ctx context.Context, name string, args []string,
	op func(context.Context, int, time.Time) (lifecycle.Outcome, error)) error {
	var date string
	code, err := ticketCode(name, args, func(fs *pflag.FlagSet) {
		fs.StringVar(&date, "date", "", "scheduled date, YYYY-MM-DD")
	})
	if err != nil {
		return err
	}
	when, err := time.ParseInLocation(model.DateLayout, date, time.Local)
	if err != nil {
		return fmt.Errorf("%w: --date must be YYYY-MM-DD", errUsage)
	}
	return a.mutate(ctx, code, func(id int) (lifecycle.Outcome, error) {
		return op(ctx, id, when)
	})
}

// mutate 先以驗證碼查詢取得 ID，再執行變更
func (a *app) mutate(ctx context.Context, code string, op func(id int) (lifecycle.Outcome, error)) error {
	found, err := a.lifecycle.Lookup(ctx, code)
	if err != nil {
		return err
	}
	if !found.OK() {
		a.printOutcome(found)
		return nil
	}
	outcome, err := op(found.Ticket.ID)
	if err != nil {
		return err
	}
	a.printOutcome(outcome)
	return nil
}

func (a *app) printOutcome(o lifecycle.Outcome) {
	if !o.OK() {
		fmt.Fprintf(a.out, "rejected (%s): %s\n", o.Rejection.Code(), o.Rejection.Message)
	}
	if o.Ticket == nil {
		return
	}

	t := o.Ticket
	now := a.clock.Now()
	fmt.Fprintf(a.out, "ticket      %s (#%d)\n", t.CodeVerification, t.ID)
	fmt.Fprintf(a.out, "gift        %s\n", t.Gift.Name)
	fmt.Fprintf(a.out, "beneficiary %s\n", t.Beneficiary.Name)
	fmt.Fprintf(a.out, "state       %s\n", t.EffectiveState(now))
	fmt.Fprintf(a.out, "expires     %s\n", t.ExpirationAt.Format(model.DateLayout))
	if t.ScheduledFor != nil {
		fmt.Fprintf(a.out, "scheduled   %s by %s\n", t.ScheduledFor.Format(model.DateLayout), t.DistributorName())
	}
	if t.ConsumedAt != nil {
		fmt.Fprintf(a.out, "consumed    %s by %s\n", t.ConsumedAt.Format(model.DateLayout), t.DistributorName())
	}

	actions := a.lifecycle.Actions(t)
	if actions.Notice != "" {
		fmt.Fprintf(a.out, "note        %s\n", actions.Notice)
	}
	fmt.Fprintf(a.out, "actions     consume=%t schedule=%t reschedule=%t\n",
		actions.CanConsume, actions.CanSchedule, actions.CanReschedule)
}

func ticketCode(name string, args []string, define func(*pflag.FlagSet)) (string, error) {
	rest, err := parseCommand(name, args, define)
	if err != nil {
		return "", err
	}
	if len(rest) != 1 {
		return "", fmt.Errorf("%w: %s expects exactly one ticket code", errUsage, name)
	}
	return rest[0], nil
}
