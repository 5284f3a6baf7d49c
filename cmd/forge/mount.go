package main

import (
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/spf13/cobra"

	"github.com/forgepkg/forge/internal/dcontext"
	"github.com/forgepkg/forge/vfs"
)

var mountRefs []string

func init() {
	MountCmd.Flags().StringArrayVar(&mountRefs, "ref", nil, "tag or digest reference to mount, lowest-precedence first (repeatable)")
}

// MountCmd mounts an EnvSpec's merged view as a read-only FUSE
// filesystem (spec.md §4.E), the CLI's counterpart to vfs.Mount.
var MountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "mount a merged environment as a read-only filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := configureLogging(cmd.Context(), cfg)
		store := openStore(cfg)

		if len(mountRefs) == 0 {
			mountRefs = []string{"latest"}
		}
		fsys, err := vfs.Mount([]vfs.Repo{store}, vfs.EnvSpec{References: mountRefs})
		if err != nil {
			return err
		}

		server, err := fuse.NewServer(fsys, args[0], &fuse.MountOptions{
			AllowOther: cfg.FUSE.AllowOther,
			Name:       fsys.String(),
		})
		if err != nil {
			return err
		}

		dcontext.GetLogger(ctx).Infof("forge mount: serving %v at %s", mountRefs, args[0])
		server.Serve()
		return nil
	},
}
