// admin 是兌換後台的命令列工具：查詢、兌換與排程票券，瀏覽歷史與交易紀錄，並匯出 CSV。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go-gin-gift-admin/config"
	"go-gin-gift-admin/internal/cache"
	"go-gin-gift-admin/internal/client"
	"go-gin-gift-admin/internal/database"
	"go-gin-gift-admin/internal/lifecycle"
	"go-gin-gift-admin/internal/model"
	"go-gin-gift-admin/pkg/clock"
	"go-gin-gift-admin/pkg/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage error")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, app *app, args []string) error
}

var commands = []command{
	{"lookup", "show a ticket and the actions available to you", runLookup},
	{"consume", "redeem a ticket", runConsume},
	{"schedule", "schedule a ticket for a date (--date YYYY-MM-DD)", runSchedule},
	{"reschedule", "move a scheduled ticket to another date", runReschedule},
	{"history", "list ticket history", runHistory},
	{"transactions", "list wallet or serdipay transactions", runTransactions},
	{"search", "search ticket history interactively, one query per line", runSearch},
	{"export", "export tickets, transactions or gifts to CSV", runExport},
}

// app 每個子命令共用的依賴
type app struct {
	cfg       *config.Config
	client    *client.Client
	lifecycle *lifecycle.Lifecycle
	clock     clock.Clock
	out       io.Writer
	log       *zap.Logger
}

func main() {
	defer logger.Sync()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(argv []string, out io.Writer) error {
	cfg := config.LoadConfig()

	flagSet := pflag.NewFlagSet("admin", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&cfg.API.BaseURL, "base-url", cfg.API.BaseURL, "admin API base URL")
	flagSet.IntVar(&cfg.API.ActorID, "actor", cfg.API.ActorID, "acting admin user id")
	flagSet.DurationVar(&cfg.API.Timeout, "timeout", cfg.API.Timeout, "request timeout")
	useRedis := flagSet.Bool("redis", false, "share ticket snapshots through redis")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(argv); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	name, args := flagSet.Arg(0), flagSet.Args()[1:]
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		printHelp(flagSet)
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		cfg:    cfg,
		client: client.New(cfg.API),
		clock:  clock.Real(),
		out:    out,
		log:    logger.WithComponent("admin"),
	}

	opts := []lifecycle.Option{lifecycle.WithClock(a.clock)}
	if *useRedis {
		rdb, err := database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, lifecycle.WithStore(cache.NewRedisTicketSnapshotStore(rdb, cfg.API.SnapshotTTL)))
	}
	a.lifecycle = lifecycle.New(a.client, model.User{ID: cfg.API.ActorID}, opts...)

	return cmd.run(ctx, a, args)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Gift ticket administration.\n\nUsage:\n  admin [flags] <command> [command flags]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-13s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

// parseCommand 解析子命令旗標，回傳剩餘的位置參數
func parseCommand(name string, args []string, define func(*pflag.FlagSet)) ([]string, error) {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if define != nil {
		define(flagSet)
	}
	if err := flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return flagSet.Args(), nil
}
