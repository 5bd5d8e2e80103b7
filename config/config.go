package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all configuration for the application
type Config struct {
	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Game configuration
	Game GameConfig `json:"game"`

	// Server configuration
	Server ServerConfig `json:"server"`
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	// Database driver (sqlite3)
	Driver string `json:"driver"`

	// Database connection string
	DSN string `json:"dsn"`
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Directory holding optional catalog overrides (locations.yaml, items.yaml)
	DataDir string `json:"data_dir"`

	// Path of the JSON session snapshot file
	StatePath string `json:"state_path"`

	// Starting stats for a new game
	Defaults StatDefaults `json:"defaults"`

	// Passive decay
	Decay DecayConfig `json:"decay"`

	// Activity timing
	Activity ActivityConfig `json:"activity"`
}

// StatDefaults are the values a fresh stat record starts with
type StatDefaults struct {
	Meal        float64 `json:"meal"`
	Sleep       float64 `json:"sleep"`
	Energy      float64 `json:"energy"`
	Happiness   float64 `json:"happiness"`
	Cleanliness float64 `json:"cleanliness"`
	Health      float64 `json:"health"`
	Money       float64 `json:"money"`
	Experience  float64 `json:"experience"`
	SkillPoints float64 `json:"skill_points"`
}

// DecayConfig holds the passive decay cadence and per-tick amounts
type DecayConfig struct {
	// Tick period in normal speed, milliseconds
	IntervalMs int `json:"interval_ms"`

	// Tick period in fast-forward speed, milliseconds
	FastIntervalMs int `json:"fast_interval_ms"`

	// Amount removed from each gauge per tick
	Meal        float64 `json:"meal"`
	Sleep       float64 `json:"sleep"`
	Energy      float64 `json:"energy"`
	Happiness   float64 `json:"happiness"`
	Cleanliness float64 `json:"cleanliness"`
	Health      float64 `json:"health"`
}

// ActivityConfig holds the activity engine timing
type ActivityConfig struct {
	// Total duration of a progressive activity, milliseconds
	DurationMs int `json:"duration_ms"`

	// Step interval of a progressive activity, milliseconds
	UpdateIntervalMs int `json:"update_interval_ms"`

	// Fast-forward delay before progress shows 100%, milliseconds
	SettleDelayMs int `json:"settle_delay_ms"`

	// Fast-forward delay between 100% and idle, milliseconds
	FinishDelayMs int `json:"finish_delay_ms"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "./data/vida-loka.db",
		},
		Game: GameConfig{
			DataDir:   "./assets/data",
			StatePath: "./data/game_state.json",
			Defaults: StatDefaults{
				Meal:        70,
				Sleep:       50,
				Energy:      80,
				Happiness:   50,
				Cleanliness: 70,
				Health:      80,
				Money:       100,
				Experience:  0,
				SkillPoints: 0,
			},
			Decay: DecayConfig{
				IntervalMs:     15000,
				FastIntervalMs: 5000,
				Meal:           2,
				Sleep:          1,
				Energy:         1,
				Happiness:      1,
				Cleanliness:    1,
				Health:         2,
			},
			Activity: ActivityConfig{
				DurationMs:       10000,
				UpdateIntervalMs: 1000,
				SettleDelayMs:    300,
				FinishDelayMs:    500,
			},
		},
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
		},
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Create default config file
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return config, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write config to file
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return err
	}

	return nil
}
