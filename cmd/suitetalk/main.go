package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/custodia-labs/suitetalk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/suitetalk/internal/adapters/driven/tokenstore"
	"github.com/custodia-labs/suitetalk/internal/adapters/driving/cli"
	"github.com/custodia-labs/suitetalk/internal/adapters/driving/oauth"
	"github.com/custodia-labs/suitetalk/internal/config"
	"github.com/custodia-labs/suitetalk/internal/connectors"
	"github.com/custodia-labs/suitetalk/internal/connectors/netsuite"
	"github.com/custodia-labs/suitetalk/internal/core/ports/driven"
	"github.com/custodia-labs/suitetalk/internal/core/services"
	"github.com/custodia-labs/suitetalk/internal/logger"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)
	cli.SetOperationRegistry(services.NewOperationRegistry())
	cli.SetBootstrap(bootstrap)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// cobra has already printed the error.
	if err := cli.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// bootstrap loads the selected profile and wires the services for it.
func bootstrap(opts cli.Options) (*cli.Services, func(), error) {
	store, err := file.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create config store: %w", err)
	}
	cfg, err := store.Load()
	if err != nil {
		return nil, nil, err
	}

	// An explicit --profile wins over SUITETALK_PROFILE.
	lookup := config.LookupFunc(os.LookupEnv)
	if opts.Profile != "" {
		cfg.DefaultProfile = opts.Profile
		lookup = func(key string) (string, bool) {
			if key == config.EnvProfile {
				return "", false
			}
			return os.LookupEnv(key)
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, nil, err
	}

	logCfg := cfg.Log
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	profile, name, err := cfg.Profile("")
	if err != nil {
		return nil, nil, fmt.Errorf("%w (config file: %s)", err, store.Path())
	}
	if err := profile.Validate(); err != nil {
		return nil, nil, fmt.Errorf("profile %q: %w", name, err)
	}
	creds, err := profile.Credentials()
	if err != nil {
		return nil, nil, fmt.Errorf("profile %q: %w", name, err)
	}

	tokenPath := profile.TokenStorePath
	if tokenPath == "" && profile.TokenStore == tokenstore.KindSQLite {
		tokenPath = filepath.Join(filepath.Dir(store.Path()), "tokens.db")
	}
	tokens, err := tokenstore.New(profile.TokenStore, tokenPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open token store: %w", err)
	}

	var transport driven.AuthorizationTransport = oauth.NewLoopbackTransport(oauth.LoopbackConfig{
		Addr:   profile.Callback.Addr,
		Path:   profile.Callback.Path,
		Logger: log.Named("callback"),
	})
	if profile.Callback.Disabled {
		transport = oauth.NoopTransport{}
	}

	factory := connectors.NewFactory(connectors.Dependencies{
		Profile:         name,
		TokenStore:      tokens,
		Transport:       transport,
		TunnelDomain:    profile.Callback.TunnelDomain,
		CallbackTimeout: profile.CallbackTimeout(),
		OnAuthURL:       opts.OnAuthURL,
		RateLimit: netsuite.RateLimitConfig{
			RequestsPerSecond: profile.RequestsPerSecond,
			BurstSize:         profile.Burst,
		},
		Timeout: profile.RequestTimeout(),
		Logger:  log.Named("netsuite"),
	})

	log.Debug("profile loaded",
		zap.String("profile", name),
		zap.String("auth_type", string(creds.Type)),
		zap.String("account", creds.AccountID()),
		zap.String("token_store", profile.TokenStore))

	svc := &cli.Services{
		Operations:     services.NewOperationService(factory, creds, services.NewOperationRegistry(), log),
		Auth:           services.NewAuthService(factory, creds, name, tokens, log),
		Profile:        name,
		Concurrency:    profile.Concurrency,
		ContinueOnFail: profile.ContinueOnFail,
	}
	cleanup := func() {
		if c, ok := tokens.(io.Closer); ok {
			_ = c.Close()
		}
		_ = log.Sync()
	}
	return svc, cleanup, nil
}
