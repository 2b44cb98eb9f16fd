// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package deploy stages agents to Google Cloud Storage and manages their
// Vertex AI deployments: Agent Engine reasoning engines and prediction
// endpoints backed by the local server image.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrNotConfigured is returned when a required deployment setting is
// missing or still holds its placeholder value.
var ErrNotConfigured = errors.New("deployment not configured")

const (
	DefaultConfigFile  = "deployment_config.yaml"
	placeholderProject = "your-project-id"
)

// Config is the deployment configuration file.
type Config struct {
	Environment string       `mapstructure:"environment"`
	VertexAI    VertexAI     `mapstructure:"vertex_ai"`
	Agent       AgentSpec    `mapstructure:"agent"`
	Local       Local        `mapstructure:"local"`
	Endpoint    EndpointSpec `mapstructure:"endpoint"`
	Package     PackageSpec  `mapstructure:"package"`
	Steps       []Step       `mapstructure:"deployment_steps"`

	// Raw is the merged document, used to format step commands.
	Raw map[string]any `mapstructure:"-"`
}

type VertexAI struct {
	ProjectID       string `mapstructure:"project_id"`
	Region          string `mapstructure:"region"`
	StagingBucket   string `mapstructure:"staging_bucket"`
	MachineType     string `mapstructure:"machine_type"`
	MinReplicaCount int32  `mapstructure:"min_replica_count"`
	MaxReplicaCount int32  `mapstructure:"max_replica_count"`
}

type AgentSpec struct {
	Type        string `mapstructure:"type"`
	Name        string `mapstructure:"name"`
	Model       string `mapstructure:"model"`
	Description string `mapstructure:"description"`
	Instruction string `mapstructure:"instruction"`
}

type Local struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// EndpointSpec describes a prediction endpoint serving the web server image.
type EndpointSpec struct {
	DisplayName string            `mapstructure:"display_name"`
	ImageURI    string            `mapstructure:"image_uri"`
	Port        int32             `mapstructure:"port"`
	Env         map[string]string `mapstructure:"env"`
}

// PackageSpec locates the files staged for an Agent Engine deployment.
type PackageSpec struct {
	// Dir is archived as the dependency tarball.
	Dir string `mapstructure:"dir"`
	// PickleFile is the serialized agent application.
	PickleFile    string   `mapstructure:"pickle_file"`
	Requirements  []string `mapstructure:"requirements"`
	PythonVersion string   `mapstructure:"python_version"`
}

// Step is a shell command run before deploying.
type Step struct {
	Name    string `mapstructure:"name"`
	Command string `mapstructure:"command"`
}

// SetDefaults fills in unset values.
func (c *Config) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.VertexAI.Region == "" {
		c.VertexAI.Region = "us-central1"
	}
	if c.VertexAI.MachineType == "" {
		c.VertexAI.MachineType = "n1-standard-2"
	}
	if c.VertexAI.MinReplicaCount == 0 {
		c.VertexAI.MinReplicaCount = 1
	}
	if c.VertexAI.MaxReplicaCount < c.VertexAI.MinReplicaCount {
		c.VertexAI.MaxReplicaCount = c.VertexAI.MinReplicaCount
	}
	if c.Agent.Type == "" {
		c.Agent.Type = "search"
	}
	if c.Agent.Name == "" {
		c.Agent.Name = c.Agent.Type + "_agent"
	}
	if c.Agent.Model == "" {
		c.Agent.Model = "gemini-2.0-flash"
	}
	if c.Agent.Description == "" {
		c.Agent.Description = "Agent to answer questions using Google Search."
	}
	if c.Agent.Instruction == "" {
		c.Agent.Instruction = "I can answer your questions by searching the internet. Just ask me anything!"
	}
	if c.Local.Host == "" {
		c.Local.Host = "127.0.0.1"
	}
	if c.Local.Port == 0 {
		c.Local.Port = 8000
	}
	if c.Local.LogLevel == "" {
		c.Local.LogLevel = "info"
	}
	if c.Endpoint.DisplayName == "" {
		c.Endpoint.DisplayName = strings.ReplaceAll(c.Agent.Type, "_", "-") + "-endpoint"
	}
	if c.Endpoint.Port == 0 {
		c.Endpoint.Port = 8080
	}
	if c.Package.Dir == "" {
		c.Package.Dir = "."
	}
	if c.Package.PickleFile == "" {
		c.Package.PickleFile = "agent_engine.pkl"
	}
	if len(c.Package.Requirements) == 0 {
		c.Package.Requirements = []string{"google-cloud-aiplatform[adk,agent_engines]"}
	}
	if c.Package.PythonVersion == "" {
		c.Package.PythonVersion = "3.12"
	}
}

// Validate checks the settings every Vertex AI operation needs.
func (c *Config) Validate() error {
	if c.VertexAI.ProjectID == "" || c.VertexAI.ProjectID == placeholderProject {
		return fmt.Errorf("%w: set vertex_ai.project_id in %s", ErrNotConfigured, DefaultConfigFile)
	}
	if c.VertexAI.Region == "" {
		return fmt.Errorf("%w: set vertex_ai.region in %s", ErrNotConfigured, DefaultConfigFile)
	}
	return nil
}

// LoadConfig reads path and, when environment is set, merges
// environments/<environment>.yaml next to it over the base document. A
// missing environment file is logged and ignored.
func LoadConfig(ctx context.Context, path, environment string) (*Config, error) {
	log := logr.FromContextOrDiscard(ctx)

	raw, err := readYAML(path)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded base configuration", "path", path)

	if environment != "" {
		envPath := filepath.Join(filepath.Dir(path), "environments", environment+".yaml")
		override, err := readYAML(envPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Info("Environment-specific configuration not found", "path", envPath)
		case err != nil:
			return nil, err
		default:
			raw = DeepMerge(raw, override)
			log.Info("Merged configuration for environment", "environment", environment)
		}
		raw["environment"] = environment
	}
	return Decode(raw)
}

// Decode converts a configuration document into a Config with defaults.
func Decode(raw map[string]any) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid deployment configuration: %w", err)
	}
	cfg.Raw = raw
	cfg.SetDefaults()
	return &cfg, nil
}

func readYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse configuration %s: %w", path, err)
	}
	return doc, nil
}

// DeepMerge returns base with override applied. Nested maps are merged key
// by key; any other override value replaces the base value. Neither input is
// modified.
func DeepMerge(base, override map[string]any) map[string]any {
	result := maps.Clone(base)
	if result == nil {
		result = map[string]any{}
	}
	for key, value := range override {
		baseMap, baseIsMap := result[key].(map[string]any)
		overrideMap, overrideIsMap := value.(map[string]any)
		if baseIsMap && overrideIsMap {
			result[key] = DeepMerge(baseMap, overrideMap)
			continue
		}
		result[key] = value
	}
	return result
}

var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// FormatCommand replaces {section.key} placeholders with values from raw.
// Placeholders that do not resolve are left as they are.
func FormatCommand(command string, raw map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(command, func(match string) string {
		section, key, ok := strings.Cut(match[1:len(match)-1], ".")
		if !ok || strings.Contains(key, ".") {
			return match
		}
		values, ok := raw[section].(map[string]any)
		if !ok {
			return match
		}
		value, ok := values[key]
		if !ok {
			return match
		}
		return fmt.Sprint(value)
	})
}
