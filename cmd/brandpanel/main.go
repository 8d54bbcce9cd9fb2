package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	gbpadapter "github.com/brandops/brandpanel/internal/adapter/driven/gbp"
	sqliteadapter "github.com/brandops/brandpanel/internal/adapter/driven/sqlite"
	"github.com/brandops/brandpanel/internal/application"
	"github.com/brandops/brandpanel/internal/config"
	"github.com/brandops/brandpanel/internal/domain/model"
	"github.com/brandops/brandpanel/internal/metrics"
)

// credentialService keys the vendor's rows in the credential store.
const credentialService = "gbp"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"sync_interval", cfg.SyncInterval,
		"sync_locations", len(cfg.SyncLocations),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations.
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// 4. Wire adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	reviewStore := sqliteadapter.NewReviewRepo(db)
	collector := metrics.NewCollector()

	// 5. Build the vendor credential. Stored tokens take priority over env
	// vars so a refreshed token survives restarts.
	cred, ok, err := resolveCredential(ctx, cfg, credentialStore)
	if err != nil {
		return err
	}

	var client *gbpadapter.Client
	if ok {
		client, err = gbpadapter.NewClient(cred, cfg.RequestTimeout)
		if err != nil {
			return err
		}
		client.SetRecorder(collector)
		client.OnTokenRefresh(func(accessToken string, expiry time.Time) {
			persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := credentialStore.Set(persistCtx, credentialService, "access_token", accessToken); err != nil {
				slog.Warn("persisting refreshed access token failed", "error", err)
				return
			}
			if !expiry.IsZero() {
				if err := credentialStore.Set(persistCtx, credentialService, "access_token_expiry", expiry.UTC().Format(time.RFC3339)); err != nil {
					slog.Warn("persisting token expiry failed", "error", err)
				}
			}
		})
		slog.Info("vendor client created", "credential_kind", cred.Kind)
	} else {
		slog.Info("no vendor credentials configured, sync disabled until credentials are provided")
	}

	// 6. Provider for hot-swap, sync service.
	provider := application.NewClientProvider(nil)
	if client != nil {
		provider.Replace(client)
	}

	targets := make([]application.SyncTarget, 0, len(cfg.SyncLocations))
	for _, loc := range cfg.SyncLocations {
		targets = append(targets, application.SyncTarget{Account: loc.Account, Location: loc.Location})
	}
	syncSvc := application.NewSyncService(provider, reviewStore, targets, cfg.SyncInterval)
	go syncSvc.Start(ctx)

	// 7. Operational HTTP surface: health and metrics only.
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("brandpanel started",
		"listen_addr", cfg.ListenAddr,
		"sync_interval", cfg.SyncInterval,
	)

	// 8. Wait for shutdown signal, then drain.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// resolveCredential assembles the vendor credential from the service-account
// key file or the delegated OAuth env vars, letting stored tokens override
// the env-supplied ones. ok is false when nothing usable is configured.
func resolveCredential(ctx context.Context, cfg *config.Config, store *sqliteadapter.CredentialRepo) (model.Credential, bool, error) {
	if cfg.ServiceAccountKeyPath != "" {
		data, err := os.ReadFile(cfg.ServiceAccountKeyPath)
		if err != nil {
			return model.Credential{}, false, err
		}
		cred, err := gbpadapter.ParseServiceAccountKey(data)
		if err != nil {
			return model.Credential{}, false, err
		}
		return cred, true, nil
	}

	accessToken := cfg.OAuthAccessToken
	refreshToken := cfg.OAuthRefreshToken
	if stored, err := store.Get(ctx, credentialService, "access_token"); err == nil && stored != "" {
		accessToken = stored
	}
	if stored, err := store.Get(ctx, credentialService, "refresh_token"); err == nil && stored != "" {
		refreshToken = stored
	}

	if accessToken == "" && refreshToken == "" {
		return model.Credential{}, false, nil
	}

	var expiry time.Time
	if stored, err := store.Get(ctx, credentialService, "access_token_expiry"); err == nil && stored != "" {
		if parsed, perr := time.Parse(time.RFC3339, stored); perr == nil {
			expiry = parsed
		}
	}

	return model.Credential{
		Kind:         model.CredentialDelegated,
		AccessToken:  accessToken,
		Expiry:       expiry,
		RefreshToken: refreshToken,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
	}, true, nil
}
