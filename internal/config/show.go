package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ShowConfig holds configuration for the show command.
type ShowConfig struct {
	In               string
	View             string
	Vault            string
	ChainID          int64
	Type             string
	ShowRedundant    bool
	LimitPerCategory int
	Page             int
	PageSize         int
	Format           string
	LogLevel         string
}

// LoadShow merges config file, environment variables, and flags into ShowConfig.
func LoadShow(cfgFile string, flags *pflag.FlagSet) (ShowConfig, error) {
	v := viper.New()
	v.SetDefault("in", "./data/events.jsonl")
	v.SetDefault("view", "user")
	v.SetDefault("page", 1)
	v.SetDefault("page-size", 50)
	v.SetDefault("format", "table")
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return ShowConfig{}, err
	}

	cfg := ShowConfig{
		In:               v.GetString("in"),
		View:             v.GetString("view"),
		Vault:            v.GetString("vault"),
		ChainID:          v.GetInt64("chain"),
		Type:             v.GetString("type"),
		ShowRedundant:    v.GetBool("show-redundant"),
		LimitPerCategory: v.GetInt("limit-per-category"),
		Page:             v.GetInt("page"),
		PageSize:         v.GetInt("page-size"),
		Format:           v.GetString("format"),
		LogLevel:         v.GetString("log-level"),
	}
	if cfg.In == "" {
		return ShowConfig{}, fmt.Errorf("in is required")
	}
	switch cfg.View {
	case "user", "vault":
	default:
		return ShowConfig{}, fmt.Errorf("view must be user or vault, got %q", cfg.View)
	}
	switch cfg.Format {
	case "table", "json":
	default:
		return ShowConfig{}, fmt.Errorf("format must be table or json, got %q", cfg.Format)
	}
	return cfg, nil
}
