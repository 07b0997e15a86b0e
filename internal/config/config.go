package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Settings holds the configuration for a kubereach run. Values are loaded
// in precedence order: environment variables, then env-file, then flags.
type Settings struct {
	KubectlPath string        `env:"KUBECTL_PATH"`
	Kubeconfig  string        `env:"KUBECONFIG_PATH"`
	Namespace   string        `env:"NAMESPACE"`
	UseAPI      bool          `env:"USE_API"`
	Timeout     time.Duration `env:"TIMEOUT"`
	Output      string        `env:"OUTPUT" envDefault:"text"`
	Verbose     bool          `env:"VERBOSE"`
}

// Load builds Settings from KUBEREACH_-prefixed environment variables and,
// when envFile is non-empty, overrides from that file. A missing env file
// is not an error.
func Load(envFile string) (*Settings, error) {
	s := &Settings{}
	if err := env.Parse(s, env.Options{Prefix: "KUBEREACH_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if envFile != "" {
		if err := s.loadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// loadEnvFile applies KEY=value pairs from a file. Returns nil if the file
// doesn't exist.
func (s *Settings) loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := unquote(strings.TrimSpace(parts[1]))

		if err := s.apply(key, value); err != nil {
			return fmt.Errorf("invalid %s in %s: %w", key, path, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read env file: %w", err)
	}
	return nil
}

func (s *Settings) apply(key, value string) error {
	switch key {
	case "KUBECTL_PATH":
		s.KubectlPath = value
	case "KUBECONFIG_PATH":
		s.Kubeconfig = value
	case "NAMESPACE":
		s.Namespace = value
	case "USE_API":
		s.UseAPI = parseBool(value)
	case "TIMEOUT":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		s.Timeout = d
	case "OUTPUT":
		s.Output = value
	case "VERBOSE":
		s.Verbose = parseBool(value)
	}
	// Unknown keys are ignored so shared env files can carry extra values.
	return nil
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
