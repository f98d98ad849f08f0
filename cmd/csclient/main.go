// Command csclient is a terminal front end for the community-service
// tracker: sign in, then view violations and slips or log service hours.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/cstrack/cstrack-client/internal/account"
	"github.com/cstrack/cstrack-client/internal/api"
	"github.com/cstrack/cstrack-client/internal/config"
	"github.com/cstrack/cstrack-client/internal/credstore"
	"github.com/cstrack/cstrack-client/internal/dashboard"
	"github.com/cstrack/cstrack-client/internal/queue"
	"github.com/cstrack/cstrack-client/internal/session"
)

const usage = `usage: csclient [-profile name] <command> [flags]

commands:
  login            sign in and store the session
  logout           clear the stored session
  whoami           show the stored session
  violations       list your violations (student) or your beneficiaries' (guest)
  slips            list CS slips (student, guest) or your station's slips (employee)
  report           log service hours against a slip (employee)
  register         create a student, employee or guest account
  verify-otp       confirm a new account
  forgot-password  request a password reset code
  reset-password   set a new password with the reset code
  forgot-username  request a username change code
  change-username  set a new username with the change code
`

// app carries what every command needs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	store  credstore.Store
	client *api.Client
	cache  *api.Cache
	guard  *session.Guard
	out    *os.File
}

func main() {
	// .env is optional for the CLI.
	_ = godotenv.Load()

	profile := flag.String("profile", "default", "session profile (redis store only)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger, *profile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newApp(cfg config.Config, logger *slog.Logger, profile string) (*app, error) {
	a := &app{cfg: cfg, logger: logger, out: os.Stdout}

	cacheCfg := config.LoadCacheConfig()
	var rdb *redis.Client
	if needsRedis(cfg, cacheCfg) {
		rdb = config.NewRedisClient()
	}
	switch cfg.StoreBackend {
	case "memory":
		a.store = credstore.NewMemoryStore()
	case "file":
		if cfg.StorePassphrase == "" {
			logger.Warn("STORE_PASSPHRASE not set; credentials are stored unencrypted", "path", cfg.StorePath)
		}
		a.store = credstore.NewFileStore(cfg.StorePath, cfg.StorePassphrase)
	case "redis":
		if rdb == nil {
			return nil, errors.New("STORE_BACKEND=redis but redis is unreachable")
		}
		a.store = credstore.NewRedisStore(rdb, cfg.StorePrefix+":"+profile)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	a.cache = api.NewCache(cacheCfg, rdb, logger)
	a.client = api.New(cfg.APIBaseURL, cfg.APITimeout, logger)
	nav := session.NavigatorFunc(func() {
		fmt.Fprintln(os.Stderr, "Session ended. Please log in again with: csclient login")
	})
	a.guard = session.NewGuard(a.store, nav, cfg.JWTSecret, logger)
	return a, nil
}

// needsRedis reports whether any configured component uses Redis, so the
// file and memory backends skip the dial.
func needsRedis(cfg config.Config, cache config.CacheConfig) bool {
	return cfg.StoreBackend == "redis" || cache.Enabled
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.guard.Logout(ctx)
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "violations":
		return a.violations(ctx, args)
	case "slips":
		return a.slips(ctx, args)
	case "report":
		return a.report(ctx, args)
	case "register", "verify-otp", "forgot-password", "reset-password", "forgot-username", "change-username":
		return a.accountFlow(ctx, cmd, args)
	}
	flag.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) accounts() *account.Service {
	return account.New(a.client, a.store, a.cfg.JWTSecret, a.logger)
}

func (a *app) deps() dashboard.Deps {
	return dashboard.Deps{Guard: a.guard, API: a.client, Cache: a.cache, Logger: a.logger}
}

func (a *app) publisher() dashboard.ReportPublisher {
	if !a.cfg.PublishEvents {
		return nil
	}
	return queue.NewPublisher(a.cfg.AMQPURL, a.logger)
}
