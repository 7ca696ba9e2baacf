package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/rpc"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
	"github.com/LeJamon/goListingd/internal/version"
)

var (
	// Server flags
	port     int
	bindAddr string
)

// statsInterval is how often cache statistics are logged.
const statsInterval = 5 * time.Minute

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the listingd server",
	Long: `Start the listingd server which provides:
- HTTP JSON-RPC API on /
- WebSocket invocation stream on /ws
- Prometheus metrics on /metrics

This is the default command when no subcommand is specified.`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = runServer
	rootCmd.Args = cobra.NoArgs

	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	serverCmd.Flags().StringVar(&bindAddr, "bind", "", "address to bind to (overrides server.bind)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if bindAddr != "" {
		cfg.Server.Bind = bindAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := openNode(ctx, cfg)
	if err != nil {
		return err
	}
	defer n.Close()

	log := n.log
	log.Infof("Starting listingd %s", version.Version)
	if path := cfg.GetConfigPath(); path != "" {
		log.Infof("Loaded configuration from %s", path)
	}

	hcfg := rpc.HandlerConfig{
		Services:        &rpc_types.ServiceContainer{Ledger: n.service},
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		Websocket:       cfg.Server.Websocket,
		Log:             n.logs.NewLogger(logging.SubsystemRPC),
	}
	if n.metrics != nil {
		hcfg.Metrics = n.metrics.Handler()
	}
	handler := rpc.NewHandler(hcfg)

	listener, err := net.Listen("tcp", cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Address(), err)
	}
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	log.Infof("JSON-RPC listening on http://%s%s", listener.Addr(), rpc.PathRPC)
	if cfg.Server.Websocket {
		log.Infof("WebSocket listening on ws://%s%s", listener.Addr(), rpc.PathWebSocket)
	}
	if n.metrics != nil {
		log.Infof("Metrics served on http://%s%s", listener.Addr(), rpc.PathMetrics)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		handler.Close()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				st := n.state.Stats()
				log.Debugf("State cache: %d entries, %d hits, %d misses (%.1f%%)",
					st.Len, st.Hits, st.Misses, st.HitRate*100)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Infof("Stopped after %d invocations", n.state.Applied())
	return nil
}
