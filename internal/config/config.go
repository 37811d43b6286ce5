// Package config handles animation tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Animation AnimationConfig `yaml:"animation"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AnimationConfig holds playback and baking settings.
type AnimationConfig struct {
	Speed       float32 `yaml:"speed"`        // Playback speed multiplier
	CatchUp     bool    `yaml:"catch_up"`     // Skip missed frames under long frame times
	BakeWorkers int     `yaml:"bake_workers"` // Parallel clip bakes at load, 0 = GOMAXPROCS
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Animation: AnimationConfig{
			Speed:       1,
			CatchUp:     true,
			BakeWorkers: 4,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
