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

// Package auth resolves Google Cloud credentials for Vertex AI and Cloud
// Storage clients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/adk-starter/agentkit/config"
)

// CloudPlatformScope is requested when no scopes are given.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ErrNoCredentials is returned when none of the credential sources worked.
var ErrNoCredentials = errors.New("no credentials could be obtained")

// findDefault is swapped in tests.
var findDefault = google.FindDefaultCredentials

// GetCredentials tries, in order, the given service account file, the file
// named by GOOGLE_APPLICATION_CREDENTIALS and application default credentials.
// Failures of individual sources are logged as warnings.
func GetCredentials(ctx context.Context, serviceAccountFile string, scopes ...string) (*google.Credentials, error) {
	log := logr.FromContextOrDiscard(ctx)
	if len(scopes) == 0 {
		scopes = []string{CloudPlatformScope}
	}

	for _, src := range []struct {
		name string
		path string
	}{
		{"service account file", serviceAccountFile},
		{"GOOGLE_APPLICATION_CREDENTIALS", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")},
	} {
		if src.path == "" {
			continue
		}
		creds, err := fromFile(ctx, src.path, scopes)
		if err != nil {
			log.Info("Failed to load credentials", "source", src.name, "path", src.path, "error", err.Error())
			continue
		}
		log.Info("Loaded credentials", "source", src.name, "path", src.path)
		return creds, nil
	}

	log.Info("Loading application default credentials")
	creds, err := findDefault(ctx, scopes...)
	if err != nil {
		log.Info("Failed to load application default credentials", "error", err.Error())
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return creds, nil
}

func fromFile(ctx context.Context, path string, scopes []string) (*google.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return google.CredentialsFromJSON(ctx, data, scopes...)
}

// Refresh fetches a token from the credentials' token source. It reports
// whether a valid token is now available.
func Refresh(ctx context.Context, creds *google.Credentials) bool {
	log := logr.FromContextOrDiscard(ctx)
	if creds == nil || creds.TokenSource == nil {
		return false
	}
	tok, err := creds.TokenSource.Token()
	if err != nil {
		log.Info("Failed to refresh credentials", "error", err.Error())
		return false
	}
	return tok.Valid()
}

// Configure logs which authentication mode the settings select and warns
// when the corresponding secret is missing.
func Configure(ctx context.Context, s *config.Settings) {
	log := logr.FromContextOrDiscard(ctx)
	if s.UseVertexAI {
		log.Info("Using Vertex AI authentication")
		if _, err := GetCredentials(ctx, ""); err != nil {
			log.Info("No credentials found for Vertex AI", "error", err.Error())
		}
		return
	}
	log.Info("Using Google API key authentication")
	if s.GoogleAPIKey == "" {
		log.Info("No Google API key found")
	}
}

// VertexEndpoint is the regional Vertex AI API host.
func VertexEndpoint(region string) string {
	return fmt.Sprintf("%s-aiplatform.googleapis.com:443", region)
}

// ClientOptions returns client options carrying resolved credentials. When
// region is not empty the options also point at the regional Vertex AI host.
func ClientOptions(ctx context.Context, s *config.Settings, region string) ([]option.ClientOption, error) {
	creds, err := GetCredentials(ctx, s.GoogleApplicationCredentials)
	if err != nil {
		return nil, err
	}
	opts := []option.ClientOption{option.WithCredentials(creds)}
	if region != "" {
		opts = append(opts, option.WithEndpoint(VertexEndpoint(region)))
	}
	return opts, nil
}
