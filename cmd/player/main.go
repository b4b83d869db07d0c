// Package main provides the bit-perfect player entry point.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bitperfect/internal/infra/config"
	"github.com/osa030/bitperfect/internal/infra/logger"
)

var (
	app        = kingpin.New("bitperfect", "Bit-perfect audio player")
	configPath = app.Flag("config", "Path to config file").Envar("BITPERFECT_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	backend    = app.Flag("backend", "Sample rate backend (pipewire, memory)").String()

	// play command
	playCmd  = app.Command("play", "Play an audio file").Default()
	playFile = playCmd.Arg("file", "Audio file (mp3, wav, flac)").Required().ExistingFile()
	noSync   = playCmd.Flag("no-sync", "Keep the device rate unchanged").Bool()

	// rates command
	ratesCmd = app.Command("rates", "Show the device's current and supported sample rates")

	// set-rate command
	setRateCmd = app.Command("set-rate", "Switch the device's nominal sample rate")
	setRateHz  = setRateCmd.Arg("rate", "Sample rate in Hz").Required().Float64()

	// info command
	infoCmd  = app.Command("info", "Show audio file metadata")
	infoFile = infoCmd.Arg("file", "Audio file (mp3, wav, flac)").Required().ExistingFile()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Override with command-line flags if specified
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logfile != "" {
		cfg.Log.Output = "file"
		cfg.Log.File = *logfile
	}
	if *backend != "" {
		cfg.Device.Backend = *backend
	}

	closer, err := logger.Init(logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	switch command {
	case playCmd.FullCommand():
		err = runPlay(cfg, *playFile, !*noSync)
	case ratesCmd.FullCommand():
		err = runRates(cfg)
	case setRateCmd.FullCommand():
		err = runSetRate(cfg, *setRateHz)
	case infoCmd.FullCommand():
		err = runInfo(cfg, *infoFile)
	}
	if err != nil {
		zlog.Error().Msgf("%s: %v", command, err)
		closer.Close()
		os.Exit(1)
	}
}
