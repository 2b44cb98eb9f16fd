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

// Package logging builds the logr.Logger shared by the CLI, the local server
// and the deployment tooling.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options tweak the logger built by New.
type Options struct {
	// Dev switches to the human readable development encoder with caller info.
	Dev bool
	// File additionally writes log lines to the given path.
	File string
}

// ParseLevel maps LOG_LEVEL values onto zap levels. Unknown values mean info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error", "critical":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a logger and a sync function to flush it before exit.
func New(level string, opts Options) (logr.Logger, func()) {
	zapLevel := ParseLevel(level)

	var zapConfig zap.Config
	if opts.Dev {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.TimeKey = "timestamp"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	zapConfig.OutputPaths = []string{"stderr"}

	var fileErr error
	if opts.File != "" {
		if fileErr = os.MkdirAll(filepath.Dir(opts.File), 0o755); fileErr == nil {
			zapConfig.OutputPaths = append(zapConfig.OutputPaths, opts.File)
		}
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		// Opening an output failed; stderr alone never does.
		fileErr = err
		zapLogger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			zapConfig.Level,
		))
	}

	logger := zapr.NewLogger(zapLogger)
	logger.Info("Logging configured", "level", zapLevel.String())
	switch {
	case opts.File == "":
	case fileErr != nil:
		Warn(logger, "file logging disabled", "path", opts.File, "error", fileErr.Error())
	default:
		logger.Info("Logging to file", "path", opts.File)
	}
	return logger, func() { _ = zapLogger.Sync() }
}

// Warn logs msg at warn level when log is backed by zap. logr has no warn
// level, so other sinks get an info line prefixed with "WARNING: ".
func Warn(log logr.Logger, msg string, keysAndValues ...any) {
	if u, ok := log.GetSink().(zapr.Underlier); ok {
		u.GetUnderlying().WithOptions(zap.AddCallerSkip(1)).Sugar().Warnw(msg, keysAndValues...)
		return
	}
	log.Info("WARNING: "+msg, keysAndValues...)
}
