package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"makeChannel/internal/app/runtime"
	"makeChannel/internal/infrastructure/config"
	"makeChannel/internal/usecase/commands"
)

var (
	envFile string
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "bot",
	Short:        "Bot de Discord para autogestionar el acceso a canales de una categoría",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBot,
}

func init() {
	rootCmd.Long = longHelp()
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "archivo .env a cargar (por defecto .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "logs de depuración")
}

func longHelp() string {
	var b strings.Builder
	b.WriteString("Escucha los canales cuyo topic contiene el marcador (por defecto " + config.DefaultMarker + ")\n")
	b.WriteString("y atiende los comandos:\n\n")
	for _, item := range commands.Catalog(config.DefaultPrefix) {
		fmt.Fprintf(&b, "  %-28s %s\n", item.Usage, item.Description)
	}
	return b.String()
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	run, err := runtime.New(cfg, logger)
	if err != nil {
		return err
	}
	defer run.Close()

	if err := run.Run(ctx); err != nil {
		return err
	}

	logger.Info("bot apagado.")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
