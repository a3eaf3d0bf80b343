package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-openapi/internal/gateway"
	"github.com/gaborage/go-openapi/logger"
)

const shutdownTimeout = 5 * time.Second

// GatewayOptions holds the flags of the gateway command
type GatewayOptions struct {
	Addr        string
	AppKey      string
	AppSecret   string
	AccessToken string
	RateLimit   float64
	Burst       int
	Throttle    int
	LogLevel    string
}

// NewGatewayCommand creates the gateway command
func NewGatewayCommand() *cobra.Command {
	opts := &GatewayOptions{}

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run a local mock of the open API gateway",
		Long: `Runs an HTTP server that checks signatures like the real gateway and
serves GET /v1/ping plus GET|POST|PUT|DELETE /v1/echo, which reflects the
verified request back in the response data.`,
		Example: `  openapi gateway --addr :8080 --app-key demo --app-secret s3cret --access-token t0ken
  OPENAPI_HTTP_URL=http://localhost:8080 openapi request GET /v1/echo -q a=1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			log := logger.NewWithOptions(logger.Options{Level: opts.LogLevel, Output: cmd.ErrOrStderr()})
			return runGateway(ctx, newGateway(opts, log), opts.Addr)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&opts.AppKey, "app-key", "", "App key accepted by the gateway")
	cmd.Flags().StringVar(&opts.AppSecret, "app-secret", "", "Secret used to verify signatures")
	cmd.Flags().StringVar(&opts.AccessToken, "access-token", "", "Access token accepted for the app key")
	cmd.Flags().Float64Var(&opts.RateLimit, "rate-limit", 0, "Requests per second per app key, 0 disables")
	cmd.Flags().IntVar(&opts.Burst, "burst", 1, "Rate limiter burst")
	cmd.Flags().IntVar(&opts.Throttle, "throttle", 0, "Answer the first N requests with 429")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "info", "Log level")

	return cmd
}

func (o *GatewayOptions) validate() error {
	switch {
	case o.AppKey == "":
		return errors.New("--app-key is required")
	case o.AppSecret == "":
		return errors.New("--app-secret is required")
	case o.AccessToken == "":
		return errors.New("--access-token is required")
	}
	return nil
}

func newGateway(opts *GatewayOptions, log logger.Logger) *gateway.Gateway {
	g := gateway.New(gateway.Config{
		Apps: map[string]gateway.App{
			opts.AppKey: {Secret: opts.AppSecret, AccessToken: opts.AccessToken},
		},
		RateLimit: opts.RateLimit,
		Burst:     opts.Burst,
	}, log)
	g.RegisterDefaults()
	if opts.Throttle > 0 {
		g.Throttle(opts.Throttle)
	}
	return g
}

func runGateway(ctx context.Context, g *gateway.Gateway, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return g.Shutdown(shutdownCtx)
}
