package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

const defaultDBName = "financelog.db"

const (
	envDBPath  = "FINANCELOG_DB_PATH"
	envDataDir = "FINANCELOG_DATA_DIR"
)

// UserConfig is the persisted per-user configuration.
type UserConfig struct {
	DBName  string `json:"db_name"`
	DataDir string `json:"data_dir"`
}

var runtimeDataDir string
var runtimePort = 8000

// SetRuntimeDataDir overrides the data directory for this process.
func SetRuntimeDataDir(dir string) {
	runtimeDataDir = dir
}

// SetRuntimePort overrides the HTTP port for this process.
func SetRuntimePort(port int) {
	if port > 0 {
		runtimePort = port
	}
}

// GetRuntimePort returns the effective HTTP port.
func GetRuntimePort() int {
	return runtimePort
}

func appConfigDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "FinanceLog"), nil
	}
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "FinanceLog"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "financelog"), nil
	}
	return filepath.Join(configDir, "financelog"), nil
}

func appConfigPath() (string, error) {
	dir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadUserConfig reads the user configuration, falling back to defaults when
// the file is missing or malformed.
func LoadUserConfig() UserConfig {
	defaults := UserConfig{DBName: defaultDBName}
	path, err := appConfigPath()
	if err != nil {
		return defaults
	}
	file, err := os.Open(path)
	if err != nil {
		return defaults
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&defaults); err != nil {
		return UserConfig{DBName: defaultDBName}
	}
	if defaults.DBName == "" {
		defaults.DBName = defaultDBName
	}
	return defaults
}

// SaveUserConfig writes the user configuration to the platform config dir.
func SaveUserConfig(cfg UserConfig) error {
	path, err := appConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// GetDataDir resolves the data directory, in precedence order: runtime
// override, environment, user config, platform default. The directory is
// created when absent.
func GetDataDir() (string, error) {
	if runtimeDataDir != "" {
		if err := os.MkdirAll(runtimeDataDir, 0o755); err != nil {
			return "", err
		}
		return runtimeDataDir, nil
	}
	if envDir := os.Getenv(envDataDir); envDir != "" {
		if err := os.MkdirAll(envDir, 0o755); err != nil {
			return "", err
		}
		return envDir, nil
	}
	cfg := LoadUserConfig()
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return "", err
		}
		return cfg.DataDir, nil
	}
	defaultDir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(defaultDir, 0o755); err != nil {
		return "", err
	}
	return defaultDir, nil
}

// GetDBPath resolves the database file path. FINANCELOG_DB_PATH wins over the
// configured data dir and name.
func GetDBPath() (string, error) {
	if envPath := os.Getenv(envDBPath); envPath != "" {
		return envPath, nil
	}
	cfg := LoadUserConfig()
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	name := cfg.DBName
	if name == "" {
		name = defaultDBName
	}
	return filepath.Join(dataDir, name), nil
}

// GetLogDir returns the log directory under the data dir.
func GetLogDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "logs"), nil
}
