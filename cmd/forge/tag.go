package main

import (
	"fmt"
	"os"
	"time"

	events "github.com/docker/go-events"
	"github.com/spf13/cobra"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/internal/dcontext"
)

var (
	tagUser    string
	tagMessage string
)

func init() {
	TagCmd.AddCommand(tagPushCmd)
	TagCmd.AddCommand(tagRmCmd)
	tagPushCmd.Flags().StringVar(&tagUser, "user", os.Getenv("USER"), "user recorded on the tag entry")
	tagPushCmd.Flags().StringVar(&tagMessage, "message", "", "message recorded on the tag entry")
	RootCmd.AddCommand(TagCmd)
}

// TagCmd groups the tag-stream mutations that, unlike serve/mount/sync,
// actually produce graph.TagEvents -- the one place in this binary a
// graph.Notifier has anything to publish.
var TagCmd = &cobra.Command{
	Use:   "tag",
	Short: "push or remove entries in a tag stream",
}

// tagLogSink is an events.Sink that logs every graph.TagEvent it
// receives, the stand-in for notifications/sinks.go's HTTP/AMQP delivery
// sinks now that this binary has no registry-wide event fan-out to
// configure, just its own tag-stream mutations to report.
type tagLogSink struct{ log dcontext.Logger }

func (s tagLogSink) Write(event events.Event) error {
	if te, ok := event.(graph.TagEvent); ok {
		s.log.Infof("tag %s %q -> %s", te.Action, te.Name, te.Tag.Digest)
	}
	return nil
}

func (s tagLogSink) Close() error { return nil }

var tagPushCmd = &cobra.Command{
	Use:   "push <name> <digest>",
	Short: "push a tag entry, notifying any configured sink",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := configureLogging(cmd.Context(), cfg)
		store := openStore(cfg)

		d := digest.Digest(args[1])
		if err := digest.Validate(d); err != nil {
			return fmt.Errorf("invalid digest %q: %w", args[1], err)
		}

		notifier := graph.NewNotifier(store, tagLogSink{log: dcontext.GetLogger(ctx)})
		defer notifier.Close()
		return notifier.PushTag(args[0], d, tagUser, tagMessage, time.Now())
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "remove a tag stream, notifying any configured sink",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := configureLogging(cmd.Context(), cfg)
		store := openStore(cfg)

		notifier := graph.NewNotifier(store, tagLogSink{log: dcontext.GetLogger(ctx)})
		defer notifier.Close()
		return notifier.RemoveTagStream(args[0])
	},
}
