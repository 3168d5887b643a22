package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/dukerupert/fridgly/internal/backup"
	"github.com/dukerupert/fridgly/internal/config"
	"github.com/dukerupert/fridgly/internal/database"
	"github.com/dukerupert/fridgly/internal/identity"
	"github.com/dukerupert/fridgly/internal/inventory"
	"github.com/dukerupert/fridgly/internal/logging"
	"github.com/dukerupert/fridgly/internal/metrics"
	"github.com/dukerupert/fridgly/internal/middleware"
	"github.com/dukerupert/fridgly/internal/model"
	"github.com/dukerupert/fridgly/internal/push"
	"github.com/dukerupert/fridgly/internal/server"
	"github.com/dukerupert/fridgly/internal/session"
	"github.com/dukerupert/fridgly/internal/store"
	fsstore "github.com/dukerupert/fridgly/internal/store/firestore"
	ws "github.com/dukerupert/fridgly/internal/websocket"
)

// groupStore is what both the repository and the alert scheduler need
// from the group backend.
type groupStore interface {
	inventory.GroupStore
	push.GroupLister
}

type backend struct {
	db     *sql.DB
	users  inventory.DirectoryStore
	groups groupStore
	items  inventory.ItemStore
	checks map[string]server.HealthCheck
	close  func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("fridgly exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var app *firebase.App
	if cfg.UsesFirebase() {
		var opts []option.ClientOption
		if cfg.FirebaseCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
		}
		var err error
		app, err = firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			return err
		}
	}

	be, err := openBackend(ctx, cfg, app)
	if err != nil {
		return err
	}
	defer be.close()

	verifier, err := newVerifier(ctx, cfg, app)
	if err != nil {
		return err
	}

	cache, err := newSessionCache(cfg, be.checks)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(ctx, cfg, app, logger)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	coreOpts := []inventory.Option{inventory.WithLogger(logger), inventory.WithMetrics(m)}
	dir := inventory.NewDirectory(be.users, coreOpts...)
	repo := inventory.NewRepository(be.items, be.groups, coreOpts...)

	hub := ws.NewHub(logger)
	limiter := middleware.NewRateLimiter(10, time.Minute)
	authn := middleware.NewAuthenticator(verifier, dir, cache, logger)

	srv := server.New(server.Deps{
		Items:       repo,
		Auth:        authn,
		Hub:         hub,
		RateLimiter: limiter,
		Checks:      be.checks,
		Origins:     cfg.AllowedOrigins,
		TrustProxy:  cfg.TrustProxy,
	}, logger)

	scheduler := push.NewScheduler(repo, be.groups, notifier,
		push.WithInterval(cfg.AlertInterval),
		push.WithLogger(logger),
		push.WithMetrics(m),
		push.WithUpdateHook(func(groupID string, item *model.Item) {
			hub.Broadcast(groupID, ws.ItemMessage(ws.ActionUpdated, item.ID, item))
		}),
	)

	// No read or write timeout: both would cut long-lived websocket feeds.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	scheduler.Start(gctx)

	var snapshots *backup.Manager
	if be.db != nil && cfg.Backup.Bucket != "" {
		b := cfg.Backup
		client := backup.NewS3Client(backup.S3Config{
			Endpoint:  b.Endpoint,
			Bucket:    b.Bucket,
			Region:    b.Region,
			AccessKey: b.AccessKey,
			SecretKey: b.SecretKey,
		})
		snapshots = backup.NewManager(be.db, client, backup.Config{
			Bucket:     b.Bucket,
			Prefix:     b.Prefix,
			Passphrase: b.Passphrase,
			Interval:   b.Interval,
			Retain:     b.Retain,
		}, logger.With("component", "backup"))
		snapshots.Start(gctx)
	}

	g.Go(func() error {
		logger.Info("fridgly running", "addr", httpServer.Addr, "store", cfg.Store, "auth", cfg.Auth, "push", cfg.Push)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		limiter.RunCleanup(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		scheduler.Stop()
		if snapshots != nil {
			snapshots.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openBackend(ctx context.Context, cfg config.Config, app *firebase.App) (*backend, error) {
	if cfg.Store == config.StoreFirestore {
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		return &backend{
			users:  fsstore.NewUserStore(client),
			groups: fsstore.NewGroupStore(client),
			items:  fsstore.NewItemStore(client),
			checks: map[string]server.HealthCheck{},
			close:  client.Close,
		}, nil
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &backend{
		db:     db,
		users:  store.NewUserStore(db),
		groups: store.NewGroupStore(db),
		items:  store.NewItemStore(db),
		checks: map[string]server.HealthCheck{"db": db.PingContext},
		close:  db.Close,
	}, nil
}

func newVerifier(ctx context.Context, cfg config.Config, app *firebase.App) (identity.Verifier, error) {
	if cfg.Auth == config.AuthDev {
		return identity.NewDevVerifier(cfg.DevAuthSecret), nil
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return identity.NewFirebaseVerifier(client), nil
}

func newSessionCache(cfg config.Config, checks map[string]server.HealthCheck) (session.Cache, error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryCache(cfg.SessionTTL), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return session.NewRedisCache(client, cfg.SessionTTL), nil
}

func newNotifier(ctx context.Context, cfg config.Config, app *firebase.App, logger *slog.Logger) (push.Notifier, error) {
	if cfg.Push != config.PushFCM {
		return push.NewLogNotifier(logger.With("component", "push")), nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return push.NewFCMNotifier(client), nil
}
