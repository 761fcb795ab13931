package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mcptap/internal/tailer"
)

var tailPattern string

var tailCmd = &cobra.Command{
	Use:   "tail [dir-or-file]",
	Short: "Stream the newest session log to the terminal",
	Long: `Tail streams a session log with highlighting, following appended
lines. Given a directory (default: the configured log directory) the newest
*.log file is tailed and the stream automatically switches when a proxy
starts a newer session. Given a file, only that file is followed.

Examples:
  mcptap tail
  mcptap tail /tmp/mcptap-logs
  mcptap tail session.log --color never`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTail,
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().StringVar(&tailPattern, "pattern", tailer.DefaultPattern, "filename glob for log discovery")
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	opts := tailer.Options{
		Pattern: tailPattern,
		Colors:  colorEnabled(),
		Out:     os.Stdout,
	}

	target := ""
	if len(args) == 1 {
		target = args[0]
	}

	switch {
	case target == "":
		dir, err := resolveLogDir()
		if err != nil {
			return err
		}
		opts.Dir = dir
	default:
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			opts.Path = target
		} else {
			// Anything else is treated as a directory to watch, existing
			// or not; the tailer waits for it to produce a log.
			opts.Dir = target
		}
	}

	return tailer.New(opts).Run(ctx)
}
