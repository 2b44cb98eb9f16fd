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

// Command agentkit runs ADK agents from the command line, as an interactive
// chat, or behind the local web server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/adk-starter/agentkit/auth"
	"github.com/adk-starter/agentkit/config"
	"github.com/adk-starter/agentkit/logging"
	"github.com/adk-starter/agentkit/telemetry"
)

type app struct {
	settings *config.Settings
	log      logr.Logger
	cleanup  []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func newRootCmd(a *app) *cobra.Command {
	var (
		logLevel string
		logFile  string
		devLog   bool
	)
	cmd := &cobra.Command{
		Use:           "agentkit",
		Short:         "Google ADK agent starter kit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel == "" {
				logLevel = settings.LogLevel
			}
			log, sync := logging.New(logLevel, logging.Options{Dev: devLog, File: logFile})
			a.settings, a.log = settings, log
			a.cleanup = append(a.cleanup, sync)

			ctx := logr.NewContext(cmd.Context(), log)
			shutdown, err := telemetry.Setup(ctx, telemetry.Options{Enabled: settings.EnableTracing, ServiceName: "agentkit"})
			if err != nil {
				return err
			}
			a.cleanup = append(a.cleanup, func() { _ = shutdown(context.Background()) })

			auth.Configure(ctx, settings)
			cmd.SetContext(ctx)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warning, error); defaults to LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	cmd.PersistentFlags().BoolVar(&devLog, "dev-log", false, "human readable log output")

	cmd.AddCommand(newRunCmd(a), newConfigCmd(a), newChatRemoteCmd(a), newGraphCmd(a))
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	a.close()
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
