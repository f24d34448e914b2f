package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pknames/pknames-go/pkg/cache"
	"github.com/pknames/pknames-go/pkg/config"
	"github.com/pknames/pknames-go/pkg/dht"
	"github.com/pknames/pknames-go/pkg/resolver"
)

// newServeCmd runs the DNS resolver daemon: binds a UDP socket, starts the worker pool, and blocks until
// an interrupt signal drains it.
func newServeCmd() *cobra.Command {
	var (
		socket  string
		forward string
		threads int
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the DNS resolver daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDirectory()
			if err != nil {
				return err
			}
			pub, _, err := dir.ReadSecret()
			if err != nil {
				return err
			}

			daemonCfg, err := dir.ReadDaemonConfig()
			if err != nil {
				return err
			}
			applyDaemonConfigDefaults(cmd, daemonCfg, &socket, &forward, &threads, &noCache)

			store, err := dht.OpenStore(dir.DHTStorePath())
			if err != nil {
				return err
			}
			defer store.Close()

			transport := dht.NewInProcessTransport()
			node := dht.NewNode(pub, "self", transport, store)
			transport.Register("self", node)

			var recordCache *cache.RecordCache
			if !noCache {
				recordCache = cache.NewRecordCache(cache.DefaultCapacity)
			}

			r := resolver.New(pub, dir, node, recordCache, noCache, logger())
			if forward != "" {
				r.SetForward(forward)
			}

			srv := resolver.NewServer(r, socket, threads, logger())
			if err := srv.Start(); err != nil {
				return fmt.Errorf("starting resolver: %w", err)
			}
			fmt.Printf("pknames resolving on %s (pubkey %s)\n", srv.Addr(), pub)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			fmt.Println("shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}
	cmd.Flags().StringVar(&socket, "socket", "0.0.0.0:53", "UDP listen address")
	cmd.Flags().StringVar(&forward, "forward", "", "upstream resolver for names outside the web of trust")
	cmd.Flags().IntVar(&threads, "threads", resolver.DefaultWorkers, "number of worker threads")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the signed-record cache")
	return cmd
}

// applyDaemonConfigDefaults overlays daemon.yaml values onto flags the
// operator did not explicitly pass on the command line - an explicit flag
// always wins over the file.
func applyDaemonConfigDefaults(cmd *cobra.Command, cfg config.DaemonConfig, socket, forward *string, threads *int, noCache *bool) {
	flags := cmd.Flags()
	if cfg.Socket != "" && !flags.Changed("socket") {
		*socket = cfg.Socket
	}
	if cfg.Forward != "" && !flags.Changed("forward") {
		*forward = cfg.Forward
	}
	if cfg.Threads != 0 && !flags.Changed("threads") {
		*threads = cfg.Threads
	}
	if cfg.NoCache && !flags.Changed("no-cache") {
		*noCache = true
	}
}
