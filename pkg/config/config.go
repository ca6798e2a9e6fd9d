// Package config stores named broker environments in a TOML file and tracks
// which one is active. The file lives at ~/.config/kcli/config.toml unless
// KCLI_CONFIG points somewhere else.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

var (
	ErrNoActiveEnvironment = errors.New("no active environment")
	ErrEnvironmentNotFound = errors.New("environment not found")
)

// Environment is one named set of bootstrap brokers. Exactly one environment
// is the default at a time, and commands connect to it unless overridden.
type Environment struct {
	Name    string   `mapstructure:"-" json:"name"`
	Brokers []string `mapstructure:"brokers" json:"brokers"`
	Default bool     `mapstructure:"default" json:"default"`
}

type Store struct {
	path string
}

// NewStore resolves the config file location.
func NewStore() (*Store, error) {
	if path := os.Getenv("KCLI_CONFIG"); path != "" {
		return &Store{path: path}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return &Store{path: filepath.Join(home, ".config", "kcli", "config.toml")}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", s.path, err)
	}
	return v, nil
}

// Load returns every environment in the file, sorted by name. A missing file
// is an empty list, not an error.
func (s *Store) Load() ([]Environment, error) {
	v, err := s.read()
	if err != nil {
		return nil, err
	}

	settings := v.AllSettings()
	envs := make([]Environment, 0, len(settings))
	for name := range settings {
		var env Environment
		if err := v.UnmarshalKey(name, &env); err != nil {
			return nil, fmt.Errorf("parsing environment %s: %w", name, err)
		}
		env.Name = name
		envs = append(envs, env)
	}
	sort.Slice(envs, func(i, j int) bool { return envs[i].Name < envs[j].Name })
	return envs, nil
}

func (s *Store) save(envs []Environment) error {
	v := viper.New()
	v.SetConfigType("toml")
	for _, env := range envs {
		v.Set(env.Name+".brokers", env.Brokers)
		v.Set(env.Name+".default", env.Default)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing config %s: %w", s.path, err)
	}
	return nil
}

// Active returns the default environment.
func (s *Store) Active() (*Environment, error) {
	envs, err := s.Load()
	if err != nil {
		return nil, err
	}
	for _, env := range envs {
		if env.Default {
			return &env, nil
		}
	}
	return nil, ErrNoActiveEnvironment
}

// Upsert adds an environment or replaces the brokers of an existing one.
// Names are lowercased since the TOML keys are case insensitive. The first
// environment ever added becomes the default.
func (s *Store) Upsert(name string, brokers []string) (*Environment, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("environment name is empty")
	}
	if strings.ContainsAny(name, ". ") {
		return nil, fmt.Errorf("environment name %q must not contain dots or spaces", name)
	}
	cleaned := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			cleaned = append(cleaned, broker)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("environment %s has no brokers", name)
	}

	envs, err := s.Load()
	if err != nil {
		return nil, err
	}

	updated := Environment{Name: name, Brokers: cleaned, Default: len(envs) == 0}
	replaced := false
	for i, env := range envs {
		if env.Name == name {
			updated.Default = env.Default
			envs[i] = updated
			replaced = true
			break
		}
	}
	if !replaced {
		envs = append(envs, updated)
	}
	if err := s.save(envs); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Activate marks the named environment as the default and clears the flag on
// every other one.
func (s *Store) Activate(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	envs, err := s.Load()
	if err != nil {
		return err
	}

	found := false
	for i := range envs {
		envs[i].Default = envs[i].Name == name
		found = found || envs[i].Default
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
	}
	return s.save(envs)
}
