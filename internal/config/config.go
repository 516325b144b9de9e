// Package config provides Viper-based configuration loading for the Saltmere
// game server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// ContentDir is the root directory of YAML game content (zones, gear,
	// creatures, loot, encounters).
	ContentDir string `mapstructure:"content_dir"`
	// ScriptDir is the root directory of Lua zone scripts; empty disables
	// zone scripting.
	ScriptDir string `mapstructure:"script_dir"`
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
	// SaveInterval is how often deferred character saves flush.
	SaveInterval time.Duration `mapstructure:"save_interval"`
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

// ClockConfig holds world clock settings.
type ClockConfig struct {
	// StartEpoch is the world-seconds value the clock starts at.
	StartEpoch int64 `mapstructure:"start_epoch"`
	// Ratio is the number of game seconds per real second.
	Ratio int64 `mapstructure:"ratio"`
}

// CombatConfig holds combat engine tunables. Durations are in game seconds.
type CombatConfig struct {
	BaseAttackInterval   float64 `mapstructure:"base_attack_interval"`
	RoundDuration        float64 `mapstructure:"round_duration"`
	FleeWindow           float64 `mapstructure:"flee_window"`
	DisengageDifficulty  int     `mapstructure:"disengage_difficulty"`
	ReactionsPerRound    int     `mapstructure:"reactions_per_round"`
	ExposedAccuracyBonus int     `mapstructure:"exposed_accuracy_bonus"`
	// LeaveEndsCombat switches movement out of a room to end the fight
	// instead of requiring a disengage.
	LeaveEndsCombat bool `mapstructure:"leave_ends_combat"`
	// DisconnectGrace is how long (real time) a dropped player stays in
	// their combat session before removal.
	DisconnectGrace time.Duration `mapstructure:"disconnect_grace"`
}

// SpawnConfig holds spawn and loot settings.
type SpawnConfig struct {
	// SweepInterval is how often (real time) the populate sweep runs.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// LootTTL is how long dropped loot stays on the ground.
	LootTTL time.Duration `mapstructure:"loot_ttl"`
	// EncounterCooldown is the default per-room random encounter cooldown.
	EncounterCooldown time.Duration `mapstructure:"encounter_cooldown"`
	// EncounterTTL is how long unfought encounter creatures linger before
	// the expiry sweep reclaims them.
	EncounterTTL time.Duration `mapstructure:"encounter_ttl"`
}

// RoomsConfig holds room runtime-state settings.
type RoomsConfig struct {
	// IdleHorizon is how long (real time) a room may go without player
	// activity before its runtime state is dropped.
	IdleHorizon time.Duration `mapstructure:"idle_horizon"`
}

// WeatherConfig holds weather system settings. Spans are in world seconds.
type WeatherConfig struct {
	MinSpan int64 `mapstructure:"min_span"`
	MaxSpan int64 `mapstructure:"max_span"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit bounds opcodes per script execution; 0 uses the
	// package default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Clock     ClockConfig     `mapstructure:"clock"`
	Combat    CombatConfig    `mapstructure:"combat"`
	Spawn     SpawnConfig     `mapstructure:"spawn"`
	Rooms     RoomsConfig     `mapstructure:"rooms"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Server.ContentDir == "" {
		errs = append(errs, "server.content_dir must not be empty")
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Clock.Ratio < 1 {
		errs = append(errs, fmt.Sprintf("clock.ratio must be >= 1, got %d", c.Clock.Ratio))
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Spawn.SweepInterval <= 0 {
		errs = append(errs, "spawn.sweep_interval must be positive")
	}
	if c.Weather.MinSpan < 1 || c.Weather.MaxSpan < c.Weather.MinSpan {
		errs = append(errs, "weather spans must satisfy 1 <= min_span <= max_span")
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, "scripting.instruction_limit must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
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
	if d.SaveInterval <= 0 {
		errs = append(errs, "database.save_interval must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.BaseAttackInterval <= 0 {
		errs = append(errs, "combat.base_attack_interval must be positive")
	}
	if c.RoundDuration <= 0 {
		errs = append(errs, "combat.round_duration must be positive")
	}
	if c.FleeWindow < 0 {
		errs = append(errs, "combat.flee_window must not be negative")
	}
	if c.ReactionsPerRound < 0 {
		errs = append(errs, "combat.reactions_per_round must be >= 0")
	}
	if c.DisconnectGrace < 0 {
		errs = append(errs, "combat.disconnect_grace must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
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

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MUD_ prefix
	v.SetEnvPrefix("MUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
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
	v.SetDefault("server.content_dir", "content")
	v.SetDefault("server.script_dir", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mud")
	v.SetDefault("database.password", "mud")
	v.SetDefault("database.name", "mud")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.save_interval", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("clock.start_epoch", 0)
	v.SetDefault("clock.ratio", 3)

	v.SetDefault("combat.base_attack_interval", 3.0)
	v.SetDefault("combat.round_duration", 12.0)
	v.SetDefault("combat.flee_window", 9.0)
	v.SetDefault("combat.disengage_difficulty", 25)
	v.SetDefault("combat.reactions_per_round", 1)
	v.SetDefault("combat.exposed_accuracy_bonus", 10)
	v.SetDefault("combat.leave_ends_combat", false)
	v.SetDefault("combat.disconnect_grace", "60s")

	v.SetDefault("spawn.sweep_interval", "10s")
	v.SetDefault("spawn.loot_ttl", "10m")
	v.SetDefault("spawn.encounter_cooldown", "2m")
	v.SetDefault("spawn.encounter_ttl", "15m")

	v.SetDefault("rooms.idle_horizon", "30m")

	v.SetDefault("weather.min_span", 1800)
	v.SetDefault("weather.max_span", 7200)

	v.SetDefault("scripting.instruction_limit", 0)
}
