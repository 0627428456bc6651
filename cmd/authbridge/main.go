package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/squareft/authbridge/internal/bridge"
	"github.com/squareft/authbridge/internal/callback"
	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/cookies"
	"github.com/squareft/authbridge/internal/database"
	"github.com/squareft/authbridge/internal/logger"
	"github.com/squareft/authbridge/internal/provider"
	"github.com/squareft/authbridge/internal/provision"
	"github.com/squareft/authbridge/internal/server"
	"github.com/squareft/authbridge/internal/telemetry"
)

const startTimeout = 15 * time.Second

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "authbridge",
	Short: "Session bridge for the SquareFt dashboard and its browser extension",
	Long: `authbridge processes authentication callbacks, synchronizes the session
across the configured dashboard origins, provisions first-run profiles and
batches activity events to Postgres.`,
	RunE:          runServer,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags()
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Println("Failed to load configuration")
		return err
	}

	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *server.Server
	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger()}
		}),
		cookies.Module,
		provider.Module,
		callback.Module,
		bridge.Module,
		database.Module,
		provision.Module,
		telemetry.Module,
		server.Module,
		fx.Populate(&srv),
	)

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		pterm.Error.Println("Failed to start application")
		return err
	}

	pterm.Success.Printfln("authbridge listening on %s:%d", cfg.Server.Host, cfg.Server.Port)
	serveErr := srv.Start(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), startTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
