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

// Package config loads the starter kit settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultModel is used when an agent is created without an explicit model.
const DefaultModel = "gemini-2.0-flash"

const (
	defaultRegion   = "us-central1"
	defaultLogLevel = "INFO"
	defaultWebPort  = 8000
)

// ErrInvalidConfig is returned by Validate when a required setting is missing.
var ErrInvalidConfig = errors.New("invalid configuration")

// Settings holds the environment derived configuration.
type Settings struct {
	GoogleAPIKey                 string
	GoogleCloudProject           string
	GoogleCloudRegion            string
	GoogleApplicationCredentials string
	UseVertexAI                  bool
	VertexAISearchDatastoreID    string
	LogLevel                     string
	DevMode                      bool
	WebUIPort                    int
	EnableTracing                bool
	StagingBucket                string
	DefaultModel                 string
}

// Load reads an optional .env file from the working directory and then the
// process environment. Values already present in the environment win.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds Settings from a lookup function, usually os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (*Settings, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(get("WEB_UI_PORT", strconv.Itoa(defaultWebPort)))
	if err != nil {
		return nil, fmt.Errorf("WEB_UI_PORT must be an integer: %w", err)
	}

	return &Settings{
		GoogleAPIKey:                 get("GOOGLE_API_KEY", ""),
		GoogleCloudProject:           get("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudRegion:            get("GOOGLE_CLOUD_REGION", defaultRegion),
		GoogleApplicationCredentials: get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		UseVertexAI:                  isTrue(get("GOOGLE_GENAI_USE_VERTEXAI", "FALSE")),
		VertexAISearchDatastoreID:    get("VERTEX_AI_SEARCH_DATASTORE_ID", ""),
		LogLevel:                     get("LOG_LEVEL", defaultLogLevel),
		DevMode:                      isTrue(get("DEV_MODE", "FALSE")),
		WebUIPort:                    port,
		EnableTracing:                isTrue(get("ENABLE_TRACING", "FALSE")),
		StagingBucket:                get("STAGING_BUCKET", ""),
		DefaultModel:                 DefaultModel,
	}, nil
}

func isTrue(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// Validate reports the first missing setting. Vertex AI needs a project and a
// region, the Gemini API needs an API key.
func (s *Settings) Validate() error {
	if s.UseVertexAI {
		if s.GoogleCloudProject == "" {
			return fmt.Errorf("%w: GOOGLE_CLOUD_PROJECT is required when using Vertex AI", ErrInvalidConfig)
		}
		if s.GoogleCloudRegion == "" {
			return fmt.Errorf("%w: GOOGLE_CLOUD_REGION is required when using Vertex AI", ErrInvalidConfig)
		}
		return nil
	}
	if s.GoogleAPIKey == "" {
		return fmt.Errorf("%w: GOOGLE_API_KEY is required when not using Vertex AI", ErrInvalidConfig)
	}
	return nil
}

// Entry is a single printable setting.
type Entry struct {
	Key   string
	Value any
}

// Entries returns the settings in display order.
func (s *Settings) Entries() []Entry {
	return []Entry{
		{"google_api_key", s.GoogleAPIKey},
		{"google_cloud_project", s.GoogleCloudProject},
		{"google_cloud_region", s.GoogleCloudRegion},
		{"google_application_credentials", s.GoogleApplicationCredentials},
		{"use_vertex_ai", s.UseVertexAI},
		{"vertex_ai_search_datastore_id", s.VertexAISearchDatastoreID},
		{"log_level", s.LogLevel},
		{"dev_mode", s.DevMode},
		{"web_ui_port", s.WebUIPort},
		{"enable_tracing", s.EnableTracing},
		{"staging_bucket", s.StagingBucket},
		{"default_model", s.DefaultModel},
	}
}

// Masked returns a copy of the settings with the API key shortened to its
// first and last five characters.
func (s *Settings) Masked() Settings {
	masked := *s
	masked.GoogleAPIKey = MaskSecret(s.GoogleAPIKey)
	return masked
}

// MaskSecret keeps the first and last five characters of v.
func MaskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 10 {
		return strings.Repeat("*", len(v))
	}
	return v[:5] + "..." + v[len(v)-5:]
}

// Print writes the masked settings to w.
func (s *Settings) Print(w io.Writer) error {
	masked := s.Masked()
	if _, err := fmt.Fprintln(w, "Current Configuration:"); err != nil {
		return err
	}
	for _, e := range masked.Entries() {
		value := e.Value
		if str, ok := value.(string); ok && str == "" {
			value = "<nil>"
		}
		if _, err := fmt.Fprintf(w, "  %s: %v\n", e.Key, value); err != nil {
			return err
		}
	}
	return nil
}
