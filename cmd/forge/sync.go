package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgepkg/forge/internal/dcontext"
	"github.com/forgepkg/forge/remote"
	"github.com/forgepkg/forge/syncrepair"
)

var syncSourceURL string

func init() {
	SyncCmd.Flags().StringVar(&syncSourceURL, "source", "", "base URL of a remote.Client source (forge serve); defaults to remote.sourceurl in the config")
}

// SyncCmd walks ref from a remote source, repairing the local store
// wherever it is missing or corrupt (spec.md §4.F).
var SyncCmd = &cobra.Command{
	Use:   "sync <ref>",
	Short: "sync/repair a local store from a remote forge serve endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := configureLogging(cmd.Context(), cfg)
		target := openStore(cfg)

		sourceURL := syncSourceURL
		if sourceURL == "" {
			sourceURL = cfg.Remote.SourceURL
		}
		if sourceURL == "" {
			return fmt.Errorf("--source or remote.sourceurl is required")
		}

		engine := syncrepair.New(target, remote.NewClient(sourceURL, nil))
		traceCtx, done := dcontext.WithTrace(ctx)
		defer done("sync %s complete", args[0])
		log := dcontext.GetLogger(traceCtx)
		return engine.Walk(traceCtx, args[0], func(r syncrepair.Result) error {
			log.Infof("%s %s %s", r.Status, r.Kind, r.Digest)
			return nil
		})
	},
}
