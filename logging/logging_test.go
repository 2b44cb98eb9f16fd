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

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"Warning", zapcore.WarnLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"critical", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "agent.log")

	logger, sync := New("debug", Options{File: path})
	logger.Info("hello from test", "key", "value")
	sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file does not contain message, got:\n%s", data)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	logger, sync := New("error", Options{})
	defer sync()
	if logger.V(0).Enabled() {
		t.Errorf("info logging enabled at error level")
	}
}

func TestWarnSurvivesWarnLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.log")

	logger, sync := New("WARNING", Options{File: path})
	logger.Info("filtered info line")
	Warn(logger, "port 8000 is in use, trying port 8001")
	sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "port 8000 is in use, trying port 8001") {
		t.Errorf("warning missing from log file, got:\n%s", got)
	}
	if !strings.Contains(got, `"level":"warn"`) {
		t.Errorf("warning not logged at warn level, got:\n%s", got)
	}
	if strings.Contains(got, "filtered info line") {
		t.Errorf("info line logged at warn level, got:\n%s", got)
	}
}

func TestWarnFallsBackToInfo(t *testing.T) {
	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	Warn(logger, "bucket missing", "bucket", "b")

	if len(lines) != 1 || !strings.Contains(lines[0], `"msg"="WARNING: bucket missing"`) {
		t.Errorf("Warn() lines = %q", lines)
	}
}

func TestNewSurvivesUnusableLogFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		// MkdirAll fails because a parent is a regular file.
		{"parent is a file", filepath.Join(blocker, "agent.log")},
		// The directory exists but the log path itself cannot be opened.
		{"path is a directory", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, sync := New("info", Options{File: tt.path})
			defer sync()
			if logger.GetSink() == nil {
				t.Fatal("New() returned a logger without a sink")
			}
			if !logger.V(0).Enabled() {
				t.Errorf("fallback logger does not honour the info level")
			}
			logger.Info("still logging")
		})
	}
}
