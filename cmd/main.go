package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/config"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/delivery"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/notification"
	"github.com/flood-guardian/flood-guardian-raster-poc/internal/properties"
	"github.com/joho/godotenv"
)

func printBanner() {
	figure1 := figure.NewFigure("Flood", "isometric1", true)
	figure2 := figure.NewFigure("Guardian", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func main() {
	printBanner()

	if err := godotenv.Load(".env"); err != nil {
		// Env files are optional, the config file carries everything the
		// pipeline needs.
		slog.Debug("no .env file loaded", "err", err)
	}

	configPath := properties.ConfigPath()
	for i, arg := range os.Args {
		if strings.HasPrefix(arg, "--config=") {
			configPath = strings.TrimPrefix(arg, "--config=")
			break
		} else if arg == "--config" && i+1 < len(os.Args) {
			configPath = os.Args[i+1]
			break
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fail(err)
	}

	godal.RegisterAll()

	start := time.Now()
	runLog, err := delivery.RunPipeline(cfg)
	if err != nil {
		fail(err)
	}
	elapsed := time.Since(start)

	summary := fmt.Sprintf("Flood raster pipeline finished.\n - Dates: %d\n - Output dir: %s\n - Processing time: %s",
		runLog.NDWISeries.NumDates, cfg.Paths.OutputDir, elapsed.String())
	if err := notification.SendDiscordSuccessNotification(summary); err != nil {
		slog.Warn("failed to send success notification", "err", err)
	}
	fmt.Printf("\033[32mPipeline finished in %s. Outputs in: %s\033[0m\n", elapsed.String(), cfg.Paths.OutputDir)
}

func fail(err error) {
	slog.Error("pipeline failed", "err", err)
	if nerr := notification.SendDiscordErrorNotification(err.Error()); nerr != nil {
		slog.Warn("failed to send error notification", "err", nerr)
	}
	fmt.Printf("\033[31m%v\033[0m\n", err)
	os.Exit(1)
}
