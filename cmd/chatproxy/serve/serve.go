package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatproxy/pkg/config"
	"github.com/papercomputeco/chatproxy/pkg/logger"
	"github.com/papercomputeco/chatproxy/proxy"
)

const serveLongDesc string = `Run the chat-completion proxy.

The OpenRouter API key is read from the OPENROUTER_API_KEY environment
variable, or from api_key in the config file. Without a key the server
still starts, but every completion request fails with a 500.

Examples:
  chatproxy serve
  chatproxy serve --listen :9090 --debug
  chatproxy serve --config /etc/chatproxy.toml`

const serveShortDesc string = "Run the chat-completion proxy"

const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	configPath string
	listen     string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmder.loadConfig(cmd)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", config.DefaultListen, "Address to listen on")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

// loadConfig reads the config file and environment, then applies flags the
// user set explicitly.
func (c *serveCommander) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("listen") {
		cfg.Listen = c.listen
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = c.debug
	}

	return cfg, nil
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config) error {
	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	if cfg.APIKey == "" {
		log.Warn("no API key configured; completion requests will fail",
			zap.String("env", config.EnvAPIKey),
		)
	}

	p, err := proxy.New(ProxyConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("could not create proxy: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("proxy server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := p.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// ProxyConfig maps loaded settings onto the proxy's configuration.
func ProxyConfig(cfg *config.Config) proxy.Config {
	return proxy.Config{
		ListenAddr:      cfg.Listen,
		Route:           cfg.Route,
		APIKey:          cfg.APIKey,
		UpstreamURL:     cfg.UpstreamURL,
		DefaultModel:    cfg.DefaultModel,
		UpstreamTimeout: cfg.UpstreamTimeout.Duration,
		ReadTimeout:     cfg.ReadTimeout.Duration,
		WriteTimeout:    cfg.WriteTimeout.Duration,
	}
}
