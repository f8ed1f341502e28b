package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type OrcaSqlConfig struct {
	AppName string `mapstructure:"app_name"`

	Server struct {
		Addr  string `mapstructure:"addr"`
		Debug bool   `mapstructure:"debug"`
	} `mapstructure:"server"`

	Catalog struct {
		DefaultSchema string `mapstructure:"default_schema"`
	} `mapstructure:"catalog"`
}

// LoadConfig reads a YAML config file. An empty path returns the
// defaults.
func LoadConfig(path string) (*OrcaSqlConfig, error) {
	v := viper.New()
	v.SetDefault("app_name", "orcasql")
	v.SetDefault("server.addr", ":7432")
	v.SetDefault("server.debug", false)
	v.SetDefault("catalog.default_schema", "public")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg OrcaSqlConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
