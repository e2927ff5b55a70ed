// Package config provides Viper-based configuration loading for the arena server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server modes.
const (
	// ModeStandalone persists accounts and players in PostgreSQL.
	ModeStandalone = "standalone"
	// ModeMemory keeps accounts and players in memory only.
	ModeMemory = "memory"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode is the persistence mode: "standalone" or "memory".
	Mode string `mapstructure:"mode"`
	// Type names the server instance in logs.
	Type string `mapstructure:"type"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameServerConfig holds the game server listener and tick settings.
type GameServerConfig struct {
	// GRPCHost is the bind address for the gRPC listener.
	GRPCHost string `mapstructure:"grpc_host"`
	// GRPCPort is the TCP port for the gRPC listener.
	GRPCPort int `mapstructure:"grpc_port"`
	// TickInterval is the period of the world timer event.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// AutosaveInterval is the period between saves of every online player.
	// Zero disables autosave.
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GameServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.GRPCHost, g.GRPCPort)
}

// BattleConfig holds battle timing.
type BattleConfig struct {
	// TurnTimeout is how long a player may hold the turn against another player.
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	// CleanupDelay is how long a finished battle lingers before it is reaped.
	CleanupDelay time.Duration `mapstructure:"cleanup_delay"`
}

// PvPConfig holds the experience farming throttle.
type PvPConfig struct {
	Window     time.Duration `mapstructure:"window"`
	MaxRewards int           `mapstructure:"max_rewards"`
	GCInterval time.Duration `mapstructure:"gc_interval"`
}

// WorldConfig holds world generation and content settings.
type WorldConfig struct {
	// PowerPerDistance is the enemy level banding slope.
	PowerPerDistance float64 `mapstructure:"power_per_distance"`
	// ContentDir holds actions/ and species/ YAML. Empty selects the embedded content.
	ContentDir string `mapstructure:"content_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GameServer GameServerConfig `mapstructure:"gameserver"`
	Battle     BattleConfig     `mapstructure:"battle"`
	PvP        PvPConfig        `mapstructure:"pvp"`
	World      WorldConfig      `mapstructure:"world"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateServer(c.Server),
		validateDatabase(c.Server.Mode, c.Database),
		validateLogging(c.Logging),
		validateGameServer(c.GameServer),
		validateBattle(c.Battle),
		validatePvP(c.PvP),
		validateWorld(c.World),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

func validateServer(s ServerConfig) error {
	if s.Mode != ModeStandalone && s.Mode != ModeMemory {
		return fmt.Errorf("server.mode must be one of [standalone, memory], got %q", s.Mode)
	}
	if s.Type == "" {
		return errors.New("server.type must not be empty")
	}
	return nil
}

func validateDatabase(mode string, d DatabaseConfig) error {
	if mode == ModeMemory {
		return nil
	}
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGameServer(g GameServerConfig) error {
	var errs []string
	if g.GRPCHost == "" {
		errs = append(errs, "gameserver.grpc_host must not be empty")
	}
	if g.GRPCPort < 1 || g.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("gameserver.grpc_port must be 1-65535, got %d", g.GRPCPort))
	}
	if g.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("gameserver.tick_interval must be > 0, got %s", g.TickInterval))
	}
	if g.AutosaveInterval < 0 {
		errs = append(errs, "gameserver.autosave_interval must not be negative")
	}
	return joined(errs)
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.TurnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("battle.turn_timeout must be > 0, got %s", b.TurnTimeout))
	}
	if b.CleanupDelay < 0 {
		errs = append(errs, "battle.cleanup_delay must not be negative")
	}
	return joined(errs)
}

func validatePvP(p PvPConfig) error {
	var errs []string
	if p.Window <= 0 {
		errs = append(errs, fmt.Sprintf("pvp.window must be > 0, got %s", p.Window))
	}
	if p.MaxRewards < 0 {
		errs = append(errs, fmt.Sprintf("pvp.max_rewards must be >= 0, got %d", p.MaxRewards))
	}
	if p.GCInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("pvp.gc_interval must be >= 1m, got %s", p.GCInterval))
	}
	return joined(errs)
}

func validateWorld(w WorldConfig) error {
	if w.PowerPerDistance <= 0 {
		return fmt.Errorf("world.power_per_distance must be > 0, got %v", w.PowerPerDistance)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ARENA_ prefix
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", ModeStandalone)
	v.SetDefault("server.type", "arena")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.password", "arena")
	v.SetDefault("database.name", "arena")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gameserver.grpc_host", "127.0.0.1")
	v.SetDefault("gameserver.grpc_port", 50051)
	v.SetDefault("gameserver.tick_interval", "250ms")
	v.SetDefault("gameserver.autosave_interval", "1m")

	v.SetDefault("battle.turn_timeout", "15s")
	v.SetDefault("battle.cleanup_delay", "3s")

	v.SetDefault("pvp.window", "24h")
	v.SetDefault("pvp.max_rewards", 2)
	v.SetDefault("pvp.gc_interval", "1m")

	v.SetDefault("world.power_per_distance", 0.002)
	v.SetDefault("world.content_dir", "")
}
