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

// Package handlers contains the HTTP and WebSocket controllers of the local
// web server.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"

	"github.com/go-logr/logr"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/adk-starter/agentkit/server/web/models"
)

// AgentService is the part of an agent the controllers use.
type AgentService interface {
	Name() string
	RunAndGetResponse(ctx context.Context, userID, sessionID, text string) (string, error)
	RunStream(ctx context.Context, userID, sessionID string, msg *genai.Content, mode agent.StreamingMode) iter.Seq2[*session.Event, error]
	GetSession(ctx context.Context, userID, sessionID string) (session.Session, error)
	ListSessions(ctx context.Context, userID string) ([]session.Session, error)
}

// EncodeJSONResponse writes i as the JSON body with the given status.
func EncodeJSONResponse(i any, status int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if i == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(i); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type statusError struct {
	error
	Code int
}

func newStatusError(err error, code int) statusError {
	return statusError{error: err, Code: code}
}

func (s statusError) Unwrap() error { return s.error }

type errorHandler func(http.ResponseWriter, *http.Request) error

// FromErrorHandler adapts a handler returning an error. Errors are written
// as an ErrorResponse with the status carried by the error, 500 otherwise.
func FromErrorHandler(fn errorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		code := http.StatusInternalServerError
		var se statusError
		if errors.As(err, &se) {
			code = se.Code
		}
		if code >= http.StatusInternalServerError {
			logr.FromContextOrDiscard(r.Context()).Error(err, "Request failed", "path", r.URL.Path)
		}
		EncodeJSONResponse(models.ErrorResponse{Error: err.Error()}, code, w)
	}
}
