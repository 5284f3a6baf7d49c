package main

import (
	"context"
	"net/http"
	"os"

	gometrics "github.com/docker/go-metrics"
	"github.com/spf13/cobra"

	"github.com/forgepkg/forge/health"
	"github.com/forgepkg/forge/internal/dcontext"
	"github.com/forgepkg/forge/remote"
)

// ServeCmd exposes a local object graph store over the read-only
// remote HTTP surface (spec.md §6's opaque remote store), alongside a
// health/metrics debug surface the way registry/registry.go's
// configureDebugServer does for the registry binary.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the local object graph store over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := configureLogging(cmd.Context(), cfg)
		store := openStore(cfg)

		health.RegisterFunc("store-root-exists", func(ctx context.Context) error {
			_, err := os.Stat(cfg.Store.Root)
			return err
		})

		mux := http.NewServeMux()
		mux.Handle("/", remote.NewRouter(store))
		mux.HandleFunc("/debug/health", health.StatusHandler)
		mux.Handle("/debug/vars", gometrics.Handler())

		addr := cfg.Remote.Addr
		if addr == "" {
			addr = ":5959"
		}
		dcontext.GetLogger(ctx).Infof("forge serve: listening on %s, storage root %s", addr, cfg.Store.Root)
		return http.ListenAndServe(addr, mux)
	},
}
