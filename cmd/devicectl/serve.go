package main

import (
	"github.com/spf13/cobra"

	"github.com/wenchangshou/devicectl/internal/app"
	"github.com/wenchangshou/devicectl/internal/config"
	"github.com/wenchangshou/devicectl/internal/logging"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the device coordination engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logLevel, logFormat)
			app.Run(logger, configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to the configuration document")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	return cmd
}
