package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagAssets  = flag.String("assets", "", "Mesh search root directory")
	flagWorkers = flag.Int("workers", 0, "Mesh decode worker count")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAssets != "" {
		cfg.Assets.SearchRoot = *flagAssets
	}
	if *flagWorkers > 0 {
		cfg.Compile.DecodeWorkers = *flagWorkers
	}
}
