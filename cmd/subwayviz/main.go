package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/you/subwayviz/arrivals"
	"github.com/you/subwayviz/config"
)

var rootCmd = &cobra.Command{
	Use:               "subwayviz",
	Short:             "Seoul subway realtime arrivals",
	Long:              "Queries realtime station arrivals and visualizes them",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	envFiles []string
	cfg      *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(
		&envFiles,
		"env-file",
		"",
		[]string{".env"},
		"Env files to load before .env.local",
	)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(arrivalsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	// Base env files first, then .env.local which overrides for local development
	_ = godotenv.Load(envFiles...)
	_ = godotenv.Overload(".env.local")

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.LogFormat, cfg.LogLevel)
	return nil
}

func setupLogging(format, level string) {
	if !strings.EqualFold(format, "JSON") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(lvl)
}

func newFetcher() *arrivals.Client {
	if cfg.SeoulAPIKey == "" {
		log.Warn().Msg("SEOUL_API_KEY is not set, upstream calls will fail")
	}
	return arrivals.NewClient(cfg.SeoulAPIBaseURL, cfg.SeoulAPIKey)
}
