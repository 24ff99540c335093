package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/apply"
	"github.com/rushi1222/job-applier-amazon/internal/browser"
	"github.com/rushi1222/job-applier-amazon/internal/config"
	"github.com/rushi1222/job-applier-amazon/internal/database"
	"github.com/rushi1222/job-applier-amazon/internal/metrics"
	"github.com/rushi1222/job-applier-amazon/internal/reporter"
	"github.com/rushi1222/job-applier-amazon/internal/runner"
	"github.com/rushi1222/job-applier-amazon/internal/store"
)

var errSitesFailed = errors.New("one or more sites failed")

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	debug := flag.Bool("debug", false, "human readable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	if err := run(*configPath, logger); err != nil {
		logger.Error("❌ Run failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func run(configPath string, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	registry := runner.DefaultRegistry()
	if err := registry.Check(cfg.Sites); err != nil {
		return err
	}
	logger.Info("🔧 Config loaded",
		zap.Strings("positions", cfg.JobSearch.Positions),
		zap.Strings("locations", cfg.JobSearch.Locations),
		zap.String("record_store", cfg.RecordStore.Backend))

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(sigCtx, cfg.RunTimeout)
	defer cancel()

	stores, closeStore, err := openStore(ctx, cfg.RecordStore, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	pm, err := browser.NewPlaywright(ctx, cfg.Browser.IsHeadless(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := pm.Close(); err != nil {
			logger.Warn("⚠️ Could not close browser", zap.Error(err))
		}
	}()

	page, err := pm.NewPage(loadCookies(cfg.Browser.CookiesPath, logger), cfg.Browser.WaitTimeout)
	if err != nil {
		return err
	}
	logger.Info("✅ Browser initialized successfully!")

	driver := apply.NewDriver(apply.AmazonLayout(), cfg.Contact, cfg.Browser.WaitTimeout, logger)
	if cfg.Browser.ScreenshotDir != "" {
		driver.WithScreenshots(browser.NewScreenshotDebugger(cfg.Browser.ScreenshotDir, logger))
	}
	r := runner.New(cfg, registry, page, stores, newNotifier(cfg, logger), driver, logger)

	start := time.Now()
	res := r.Run(ctx)
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("⚠️ Could not write metrics textfile", zap.Error(err))
		}
	}

	logger.Info("🏁 Execution finished.",
		zap.String("run_id", res.RunID),
		zap.Duration("took", time.Since(start)))
	if len(res.Failures) > 0 {
		return fmt.Errorf("%w: %d", errSitesFailed, len(res.Failures))
	}
	return nil
}

// openStore picks the record store backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.RecordStoreConfig, logger *zap.Logger) (store.Provider, func(), error) {
	switch cfg.Backend {
	case "postgres":
		repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		logger.Info("🐘 Connected to PostgreSQL")
		return repo.Provider(), repo.Close, nil
	case "redis":
		rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("🧰 Connected to Redis")
		return store.RedisProvider(rdb, logger), func() { rdb.Close() }, nil
	default:
		logger.Info("📁 Using file record store", zap.String("data_dir", cfg.DataDir))
		return store.FileProvider(cfg.DataDir, logger), func() {}, nil
	}
}

func loadCookies(path string, logger *zap.Logger) []playwright.OptionalCookie {
	if path == "" {
		return nil
	}
	cookies, err := browser.LoadCookies(path)
	if err != nil {
		logger.Warn("⚠️ Could not load cookies. Continuing without them.", zap.Error(err))
		return nil
	}
	logger.Info("🍪 Loaded cookies", zap.Int("count", len(cookies)))
	return cookies
}

func newNotifier(cfg *config.Config, logger *zap.Logger) reporter.Notifier {
	notifiers := reporter.Multi{reporter.NewEmailNotifier(cfg.Email, logger)}
	if cfg.Telegram.Enabled() {
		tg, err := reporter.NewTelegramNotifier(cfg.Telegram, logger)
		if err != nil {
			logger.Warn("⚠️ Telegram disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, tg)
			logger.Info("🤖 Telegram Bot initialized.")
		}
	}
	return notifiers
}
