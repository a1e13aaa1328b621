package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Office   OfficeConfig   `mapstructure:"office"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// OfficeConfig holds room layout and transport-boundary tuning.
type OfficeConfig struct {
	ComputersPerRoom   int           `mapstructure:"computers_per_room"`
	WhiteboardsPerRoom int           `mapstructure:"whiteboards_per_room"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":2567")
	viper.SetDefault("server.rpc_address", ":2568")
	viper.SetDefault("server.metrics_address", ":2569")
	viper.SetDefault("office.computers_per_room", 5)
	viper.SetDefault("office.whiteboards_per_room", 20)
	viper.SetDefault("office.session_idle_timeout", "5m")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
