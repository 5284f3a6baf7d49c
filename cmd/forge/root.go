package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forgepkg/forge/config"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/internal/dcontext"
	"github.com/forgepkg/forge/storagedriver/filesystem"
)

var configPath string

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a forge configuration file")
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(MountCmd)
	RootCmd.AddCommand(SyncCmd)
	RootCmd.AddCommand(StatusCmd)
	RootCmd.AddCommand(VersionCmd)
}

// RootCmd is the main command for the "forge" binary.
var RootCmd = &cobra.Command{
	Use:   "forge",
	Short: "forge manages a content-addressed object graph store",
	Long:  "forge manages a content-addressed object graph store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Usage()
	},
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	f, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return config.Parse(f)
}

// configureLogging prepares ctx with a logger using cfg.Log, the way
// registry/root.go's configureLogging configures the registry binary's
// logrus output from the parsed configuration.
func configureLogging(ctx context.Context, cfg *config.Config) context.Context {
	level, err := logrus.ParseLevel(string(cfg.Log.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	switch cfg.Log.Formatter {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	ctx = dcontext.WithVersion(ctx, version)
	return dcontext.WithLogger(ctx, dcontext.GetLogger(ctx))
}

// openStore constructs the object graph store cfg.Store describes: a
// local filesystem-rooted driver plus the configured cache backend
// (spec.md §4.C/§5.C).
func openStore(cfg *config.Config) *graph.Store {
	driver := filesystem.New(cfg.Store.Root)
	return graph.New(driver, func(k cache.Kind) cache.Provider {
		switch cfg.Store.Cache.Kind {
		case "redis":
			return cache.NewRedis(cfg.Store.Cache.Redis.Addr, cfg.Store.Cache.Redis.Prefix+":"+k.String(), cfg.Store.Cache.TTL)
		default:
			return cache.NewMemory(cfg.Store.Cache.Capacity)
		}
	})
}
