package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	ModeServer      = "server"
	ModeInteractive = "interactive"
	ModeHeadless    = "headless"

	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"

	configName = "inbox-sync"
	envPrefix  = "INBOX"
)

type Config struct {
	Mode         string `mapstructure:"mode"`
	Backend      string `mapstructure:"backend"`
	DatabasePath string `mapstructure:"db"`
	GRPCAddress  string `mapstructure:"grpc-address"`
	MCPAddress   string `mapstructure:"mcp-address"`
	LogLevel     string `mapstructure:"log-level"`
	Participant  string `mapstructure:"participant"`
}

func dataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".inbox-sync")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeServer)
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("db", filepath.Join(dataDir(), "inbox-sync.db"))
	v.SetDefault("grpc-address", "127.0.0.1:50051")
	v.SetDefault("mcp-address", "127.0.0.1:8080")
	v.SetDefault("log-level", "info")
	v.SetDefault("participant", "")
}

// Load layers defaults, the optional inbox-sync.yaml file, INBOX_*
// environment variables and finally the command-line flags in args.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet(configName, flag.ContinueOnError)
	configFile := fs.String("config", "", "Config file path (default: search ./config and ~/.inbox-sync)")
	fs.String("mode", ModeServer, "Run mode: server, interactive, or headless")
	fs.String("backend", BackendSQLite, "Storage backend: sqlite or bolt")
	fs.String("db", filepath.Join(dataDir(), "inbox-sync.db"), "Database file path")
	fs.String("grpc-address", "127.0.0.1:50051", "gRPC server address")
	fs.String("mcp-address", "127.0.0.1:8080", "MCP SSE server address")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("participant", "", "Participant id to act as in interactive and headless modes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath("config")
		v.AddConfigPath(dataDir())
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "config.Load: read config")
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Only flags given explicitly override the lower layers.
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			v.Set(f.Name, f.Value.String())
		}
	})

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config.Load: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeServer, ModeInteractive, ModeHeadless:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.Backend {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.Mode != ModeServer && c.Participant == "" {
		return fmt.Errorf("mode %s needs -participant", c.Mode)
	}
	return nil
}
