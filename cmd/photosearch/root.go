package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/config"
	logpkg "github.com/kailas-cloud/photosearch/internal/logger"
)

var (
	envFile    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "photosearch",
	Short: "Semantic photo search over a Redis vector index",
	Long: `photosearch indexes observation photos from a CSV export into a Redis/Valkey
search index using a CLIP-style embedding model, and serves text and image
queries over HTTP.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file to load")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: config/<ENV>.yaml)")
}

func initEnv() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load(envFile)
}

// loadConfig resolves the configuration and the logger built from it.
func loadConfig() (config.Config, *zap.Logger, error) {
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(logpkg.Options{Env: env, Level: cfg.Logging.Level})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
