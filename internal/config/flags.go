package config

import (
	"flag"
	"strconv"
)

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagSpeed   = flag.Float64("speed", -1, "Playback speed multiplier, 0 pauses (negative keeps the configured speed)")
	flagCatchUp = flag.String("catchup", "", "Skip missed frames under long frame times (true|false)")
	flagWorkers = flag.Int("workers", 0, "Parallel clip bakes at load")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSpeed >= 0 {
		cfg.Animation.Speed = float32(*flagSpeed)
	}
	if *flagCatchUp != "" {
		if v, err := strconv.ParseBool(*flagCatchUp); err == nil {
			cfg.Animation.CatchUp = v
		}
	}
	if *flagWorkers > 0 {
		cfg.Animation.BakeWorkers = *flagWorkers
	}
}
