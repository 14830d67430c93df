package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.yaml.in/yaml/v3"
)

// AssistantConfig is the per-agent configuration loaded from YAML.
// Each agent's file lives at <dir>/<name>_assistant_config.yaml by convention.
type AssistantConfig struct {
	// Name is the agent's display name. Defaults to the name the file was
	// loaded under when the document omits it.
	Name string `yaml:"name"`
	// Instructions is the system prompt for the agent.
	Instructions string `yaml:"instructions"`
	// Model overrides the application default model for this agent.
	Model string `yaml:"model"`
	// Role classifies the agent (e.g. "engineer", "user_interaction").
	// Roles only affect how run progress is displayed.
	Role string `yaml:"assistant_role"`
	// MaxTokens caps the response length. Zero means the client default.
	MaxTokens int `yaml:"max_tokens"`
	// Temperature is the sampling temperature. Nil means the API default.
	Temperature *float64 `yaml:"temperature"`
}

// AssistantConfigPath returns the conventional path for an agent's config file.
func AssistantConfigPath(dir, name string) string {
	return filepath.Join(dir, name+"_assistant_config.yaml")
}

// LoadAssistantConfig reads and parses one agent's YAML configuration.
func LoadAssistantConfig(dir, name string) (*AssistantConfig, error) {
	path := AssistantConfigPath(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assistant config %s: %w", path, err)
	}

	cfg := &AssistantConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse assistant config %s: %w", path, err)
	}

	if cfg.Name == "" {
		cfg.Name = name
	}
	return cfg, nil
}

// AssistantRegistry holds the loaded agent configurations.
// It is safe for concurrent use; the config watcher replaces entries
// in place when files change on disk.
type AssistantRegistry struct {
	dir     string
	mu      sync.RWMutex
	configs map[string]*AssistantConfig
}

// NewAssistantRegistry creates an empty registry rooted at dir.
func NewAssistantRegistry(dir string) *AssistantRegistry {
	return &AssistantRegistry{
		dir:     dir,
		configs: make(map[string]*AssistantConfig),
	}
}

// LoadAll loads the named agents from the registry's directory.
// A malformed or missing file is reported through report and that agent is
// omitted; loading continues with the remaining names.
func (r *AssistantRegistry) LoadAll(names []string, report func(name string, err error)) {
	for _, name := range names {
		cfg, err := LoadAssistantConfig(r.dir, name)
		if err != nil {
			if report != nil {
				report(name, err)
			}
			continue
		}
		r.Put(cfg)
	}
}

// Get returns the config for an agent, or nil if it is not registered.
func (r *AssistantRegistry) Get(name string) *AssistantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[name]
}

// Put registers or replaces an agent config.
func (r *AssistantRegistry) Put(cfg *AssistantConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.Name] = cfg
}

// Names returns the registered agent names in unspecified order.
func (r *AssistantRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	return names
}

// Dir returns the directory this registry loads from.
func (r *AssistantRegistry) Dir() string {
	return r.dir
}
