package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/johnwards/ciassoc/internal/config"
	"github.com/johnwards/ciassoc/internal/handler"
	"github.com/johnwards/ciassoc/internal/logging"
	"github.com/johnwards/ciassoc/internal/remote"
	"github.com/johnwards/ciassoc/internal/telemetry"
)

type runOptions struct {
	configPath  string
	pushgateway string
	pushJob     string
	authToken   string
}

var runOpts runOptions

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOpts.configPath, "config", "c", "", "YAML file of handler properties (remoteHost, remotePort, targetFdn)")
	runCmd.Flags().StringVar(&runOpts.pushgateway, "pushgateway", "", "Prometheus Pushgateway URL to push execution metrics to")
	runCmd.Flags().StringVar(&runOpts.pushJob, "push-job", "ciassoc", "job name used when pushing metrics")
	runCmd.Flags().StringVar(&runOpts.authToken, "auth-token", "", "Bearer token sent to the naming registry and DPS (defaults to CIASSOC_AUTH_TOKEN)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the CI association handler once",
	Long: `Run configures the CI association handler from a properties file, with
CIASSOC_REMOTE_HOST, CIASSOC_REMOTE_PORT and CIASSOC_TARGET_FDN overriding it,
and executes it once. The command fails if the association cannot be made.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, cleanup, err := logging.Setup(cfg.Logging)
		if err != nil {
			return err
		}
		defer cleanup()

		opts := runOpts
		if opts.authToken == "" {
			opts.authToken = cfg.AuthToken
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runOnce(logger.WithContext(ctx), opts)
	},
}

// loadProperties reads the properties file, if any, and applies environment
// overrides for the handler's properties.
func loadProperties(path string) (config.Properties, error) {
	props := config.Properties{}
	if path != "" {
		var err error
		if props, err = config.LoadProperties(path); err != nil {
			return nil, err
		}
	}
	return props.WithEnv(EnvPrefix, handler.Properties...), nil
}

func runOnce(ctx context.Context, opts runOptions) error {
	log := zerolog.Ctx(ctx)

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	props, err := loadProperties(opts.configPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := telemetry.NewPrometheusCollector(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	h := handler.New(
		handler.WithLogger(*log),
		handler.WithCollector(collector),
		handler.WithRemoteClient(remote.NewClient(remote.WithAuthToken(opts.authToken))),
	)
	defer h.Destroy()

	// A started execution runs to completion; signals only stop the command
	// from starting one.
	execErr := h.Configure(props)
	if execErr == nil {
		execErr = h.Execute(context.WithoutCancel(ctx))
	}

	if opts.pushgateway != "" {
		if err := telemetry.Push(ctx, opts.pushgateway, opts.pushJob, reg); err != nil {
			log.Warn().Err(err).Msg("failed to push metrics")
		}
	}

	if execErr != nil {
		return execErr
	}
	cfg, _ := h.Configuration()
	log.Info().Str("fdn", cfg.TargetFDN).Str("endpoint", handler.EndpointName).Msg("association created")
	return nil
}
