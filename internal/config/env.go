package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv reads a .env file and returns a map of key-value pairs.
// It ignores comments (starting with #) and empty lines.
func LoadEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove inline comments
		if idx := strings.Index(value, " #"); idx != -1 {
			value = strings.TrimSpace(value[:idx])
		}

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		env[key] = value
	}

	return env, scanner.Err()
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	// Server
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	// Completion
	if val, ok := env["COMPLETION_ENDPOINT"]; ok {
		cfg.Completion.Endpoint = val
	}
	if val, ok := env["COMPLETION_MODEL"]; ok {
		cfg.Completion.Model = val
	}
	if val, ok := env["COMPLETION_API_KEY"]; ok {
		cfg.Completion.APIKey = val
	}
	if val, ok := env["COMPLETION_TIMEOUT"]; ok {
		if seconds, err := strconv.Atoi(val); err == nil {
			cfg.Completion.Timeout = time.Duration(seconds) * time.Second
		} else if duration, err := time.ParseDuration(val); err == nil {
			cfg.Completion.Timeout = duration
		}
	}
	if val, ok := env["COMPLETION_MOCK"]; ok {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			cfg.Completion.Mock = boolVal
		}
	}

	// Engine
	if val, ok := env["ENGINE_MAX_AUTO_DEPTH"]; ok {
		if depth, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxAutoDepth = depth
		}
	}
	if val, ok := env["ENGINE_DEBATE_DELAY"]; ok {
		if duration, err := time.ParseDuration(val); err == nil {
			cfg.Engine.DebateDelay = duration
		}
	}

	// Storage
	if val, ok := env["STORAGE_PATH"]; ok {
		cfg.Storage.Path = val
	}
}
