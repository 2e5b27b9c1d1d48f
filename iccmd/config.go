package iccmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"intcode.dev/intcode/icss"
	"intcode.dev/intcode/icvm"
)

// Config is loaded from a TOML file. Command line flags take precedence.
type Config struct {
	// DB is the path to the SQLite database, or ":memory:".
	DB string `toml:"db"`
	// Listen is the address the HTTP API listens on.
	Listen    string `toml:"listen"`
	Catalogue string `toml:"catalogue"`
	StepLimit uint64 `toml:"step_limit"`
	LogLevel  string `toml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		DB:        "intcode.db",
		Listen:    "127.0.0.1:6667",
		Catalogue: icvm.Full.String(),
		StepLimit: icss.DefaultStepLimit,
		LogLevel:  "info",
	}
}

// LoadConfig reads the file at p over DefaultConfig.
// Keys missing from the file keep their default values. An empty p returns DefaultConfig.
func LoadConfig(p string) (Config, error) {
	cfg := DefaultConfig()
	if p == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return Config{}, err
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", p, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("loading config %s: unknown keys %v", p, undec)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", p, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := icvm.ParseCatalogue(c.Catalogue); err != nil {
		return err
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Params returns the icss.Params described by the config.
func (c Config) Params() (icss.Params, error) {
	cat, err := icvm.ParseCatalogue(c.Catalogue)
	if err != nil {
		return icss.Params{}, err
	}
	return icss.Params{Catalogue: cat, StepLimit: c.StepLimit}, nil
}

func (c Config) NewLogger() (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}
