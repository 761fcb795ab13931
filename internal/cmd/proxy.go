package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mcptap/internal/format"
	"mcptap/internal/model"
	"mcptap/internal/proxy"
	"mcptap/internal/server"
	"mcptap/internal/sink"
	"mcptap/internal/stats"
)

var (
	proxyPort  int
	proxyQuiet bool
)

var proxyCmd = &cobra.Command{
	Use:   "proxy [flags] -- <command> [args...]",
	Short: "Spawn an MCP server and log its stdio traffic",
	Long: `Proxy spawns the given command, connects your stdin/stdout to the
child's, and forwards every byte unmodified. Each newline-delimited JSON-RPC
message is classified, correlated with its request, and written in a
human-readable form to a fresh session log file. Styled copies are echoed
to stderr so the protocol stream stays clean.

Examples:
  mcptap proxy -- npx my-mcp-server
  mcptap proxy --port 8720 -- ./server --flag
  mcptap tail   # in another terminal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(proxyCmd)
	proxyCmd.Flags().IntVar(&proxyPort, "port", 0, "serve log lines over HTTP/WebSocket on this port (0 = off)")
	proxyCmd.Flags().BoolVarP(&proxyQuiet, "quiet", "q", false, "do not echo formatted records to stderr")
}

func runProxy(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// --- Session log file ---
	logDir, err := resolveLogDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logPath := filepath.Join(logDir, "mcptap-"+time.Now().Format("20060102-150405")+".log")

	fileSink, err := sink.NewFileSink(logPath)
	if err != nil {
		return err
	}
	defer fileSink.Close()

	// --- Sink chain: file, optional console echo, fan-out hub ---
	hub := sink.NewHub()
	defer hub.Close()

	sinks := sink.Multi{fileSink, hub}
	if !proxyQuiet {
		sinks = append(sinks, sink.NewConsoleSink(os.Stderr))
	}

	collector := stats.NewCollector(hub.Dropped, hub.Subscribers)

	f := format.New(model.NewSession(), sinks, colorEnabled())
	f.SetObserver(collector.Observe)

	// --- Optional HTTP broadcaster ---
	if proxyPort > 0 {
		srv := server.New(hub, collector, fmt.Sprintf(":%d", proxyPort))
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("broadcast server stopped: %v", err)
			}
		}()
	}

	fmt.Fprintf(os.Stderr, "mcptap: logging to %s\n", logPath)

	p := &proxy.Proxy{
		Command:   args,
		Formatter: f,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
	return p.Run(ctx)
}
