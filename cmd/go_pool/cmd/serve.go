package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_pool/internal/config"
	"github.com/andrei-cloud/go_pool/internal/logging"
	"github.com/andrei-cloud/go_pool/internal/server"
	"github.com/andrei-cloud/go_pool/internal/workload"
	"github.com/andrei-cloud/go_pool/pkg/pool"
)

var (
	addr  string
	debug bool
	human bool
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pool admin server",
	Long:  `Register the configured pools, run the demo workload over them and serve admin commands (stats, list, resize, bulk despawn) over TCP.`,
	Run: func(cmd *cobra.Command, _ []string) {
		logging.InitLogger(debug, human)

		if err := config.Initialize(); err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
		cfg := config.Get()

		// Assemble the registry once at startup; collaborators receive
		// it explicitly.
		registry := pool.NewRegistry()
		defer registry.Close()

		if err := registry.RegisterAll(workload.Templates(cfg.Pools)); err != nil {
			log.Fatal().Err(err).Msg("failed to register configured pools")
		}

		// Drive the demo workload so the admin surface has live numbers.
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go workload.New(registry, cfg).Run(ctx)

		if addr == "" {
			addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		}
		srv, err := server.NewServer(addr, registry)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize admin server")
		}

		// Ensure the stop channel is closed only once.
		var stopOnce sync.Once
		stopChan := make(chan os.Signal, 1)
		signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-stopChan
			log.Info().Msgf("signal %v received, shutting down server", sig)

			stopOnce.Do(func() {
				cancel()
				if err := srv.Stop(); err != nil {
					log.Error().Err(err).Msg("failed to stop server")
				}
				close(stopChan)
			})
		}()

		// Start the server.
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start admin server")
		}

		// Block the main goroutine until a termination signal is received.
		<-stopChan

		log.Info().Msg("server stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (host:port), defaults to config")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	serveCmd.Flags().BoolVar(&human, "human", false, "Enable human-readable logs")
}
