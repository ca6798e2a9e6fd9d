package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keaz/kcli/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server over stdio",
	Long: `Start a server that exposes the cluster operations as MCP tools and
communicates via standard input/output streams using JSON-RPC messages.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logFile := viper.GetString("log-file")
		readOnly := viper.GetBool("read-only")

		logger, err := initLogger(logFile)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err := brokerConfig()
		if err != nil {
			return err
		}
		cfg.Logger = logger

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := mcp.NewServer(version, readOnly, cfg)
		return mcp.ServeStdio(ctx, server, logger)
	},
}

// initLogger sends logs to the given file. Logging to stdout would corrupt
// the JSON-RPC stream, so without a file the logger goes to stderr.
func initLogger(outPath string) (*log.Logger, error) {
	if outPath == "" {
		return log.New(), nil
	}

	file, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.New()
	logger.SetLevel(log.DebugLevel)
	logger.SetOutput(file)

	return logger, nil
}

func init() {
	mcpCmd.Flags().Bool("read-only", false, "Restrict the server to read-only operations")
	mcpCmd.Flags().String("log-file", "", "Path to log file")

	// Bind flags to viper
	_ = viper.BindPFlag("read-only", mcpCmd.Flags().Lookup("read-only"))
	_ = viper.BindPFlag("log-file", mcpCmd.Flags().Lookup("log-file"))
}
