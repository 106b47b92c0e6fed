package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/omnipkg/omni/internal/backend"
	"github.com/omnipkg/omni/internal/backend/backendtest"
	"github.com/omnipkg/omni/internal/config"
	"github.com/omnipkg/omni/internal/executor"
	"github.com/omnipkg/omni/internal/obs"
	"github.com/omnipkg/omni/internal/orchestrator"
	"github.com/omnipkg/omni/internal/security"
	"github.com/omnipkg/omni/internal/store"
	"github.com/omnipkg/omni/internal/txn"
	"github.com/omnipkg/omni/internal/types"
)

// app holds every component a subcommand might need, built once per
// invocation from the global flags. mirrors the teacher's dep.Ctx:
// resolved once at startup, threaded through every command function
// afterward.
type app struct {
	cfg   *config.Config
	store *store.Store
	orch  *orchestrator.Orchestrator
	reg   *backend.Registry
	log   *zap.SugaredLogger
	actor string
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// withApp wraps a cobra RunE with app construction/teardown, the way the
// teacher's main.go builds a *dep.Ctx once per command invocation.
func withApp(f func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
		mock, _ := cmd.Root().PersistentFlags().GetBool("mock")
		configPath, _ := cmd.Root().PersistentFlags().GetString("config")

		log := obs.New(verbose)
		defer log.Sync()

		if configPath == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}
			configPath = p
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dataDir, err := config.DataDir()
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}
		st, err := store.Open(dataDir + "omni.db")
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}

		ctx := obs.WithLogger(cmd.Context(), log)
		if _, err := txn.Reconcile(ctx, st); err != nil {
			return fmt.Errorf("failed to reconcile interrupted transactions: %w", err)
		}

		reg := buildRegistry(cfg, mock)

		a := &app{
			cfg:   cfg,
			store: st,
			orch:  orchestrator.NewWithStore(reg, st, cfg),
			reg:   reg,
			log:   log,
			actor: currentActor(),
		}
		defer a.Close()

		return f(ctx, a, cmd, args)
	}
}

// buildRegistry wires every real backend.Adapter (or, under --mock, an
// in-memory backendtest.Mock standing in for each so the full CLI surface
// is exercisable on a machine that has none of these package managers
// installed) and applies boxes.disabled_boxes.
func buildRegistry(cfg *config.Config, mock bool) *backend.Registry {
	reg := backend.NewRegistry()

	if mock {
		for i, b := range types.AllBackends {
			reg.Register(backendtest.New(b, len(types.AllBackends)-i))
		}
	} else {
		exec := executor.New(executor.OSSudoChecker{}, cfg.General.MaxParallelJobs)
		cacheDir, _ := config.CacheDir()
		reg.Register(backend.NewAPT(exec))
		reg.Register(backend.NewDNF(exec))
		reg.Register(backend.NewPacman(exec))
		reg.Register(backend.NewZypper(exec))
		reg.Register(backend.NewEmerge(exec))
		reg.Register(backend.NewNix(exec))
		reg.Register(backend.NewSnap(exec))
		reg.Register(backend.NewFlatpak(exec))
		reg.Register(backend.NewAppImage(exec, cacheDir+"appimages"))
		reg.Register(backend.NewBrew(exec))
		reg.Register(backend.NewMAS(exec))
		reg.Register(backend.NewWinget(exec))
		reg.Register(backend.NewChocolatey(exec))
		reg.Register(backend.NewScoop(exec))
	}

	for _, tag := range cfg.Boxes.DisabledBoxes {
		reg.Disable(types.Backend(tag))
	}
	return reg
}

// signatureClient satisfies security.SignatureFetcher with the standard
// library's default HTTP client.
func signatureClient() *http.Client { return http.DefaultClient }

func loadKeyRing(cfg *config.Config) (*security.KeyRing, error) {
	if len(cfg.Security.TrustedKeys) == 0 {
		return security.LoadKeyRing()
	}
	return security.LoadKeyRing(cfg.Security.TrustedKeys...)
}
