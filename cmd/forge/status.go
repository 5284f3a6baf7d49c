package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/health"
	"github.com/forgepkg/forge/health/checks"
)

// StatusCmd runs every registered health.Checker against the configured
// store and prints the result, the CLI equivalent of the /debug/health
// endpoint ServeCmd exposes over HTTP.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "report health check status for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := configureLogging(cmd.Context(), cfg)
		store := openStore(cfg)
		health.RegisterFunc("store-readable", func(ctx context.Context) error {
			return store.FindDigests(func(digest.Digest) error { return nil })
		})
		if cfg.Remote.SourceURL != "" {
			health.Register("sync-source-reachable", checks.HTTPChecker(cfg.Remote.SourceURL+"/tags/latest", http.StatusOK, 5*time.Second, nil))
		}

		results := health.CheckStatus(ctx)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
		if len(results) != 0 {
			return fmt.Errorf("%d health check(s) failing", len(results))
		}
		return nil
	},
}

// version is set at build time via -ldflags; it defaults to "dev" for
// local builds.
var version = "dev"

// VersionCmd prints the forge binary's version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the forge version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("forge", version)
		return nil
	},
}
