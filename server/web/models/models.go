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

// Package models defines the request and response bodies of the local web
// server and the conversion of session events into display history.
package models

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const (
	DefaultUserID    = "user"
	DefaultSessionID = "session"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// WithDefaults fills in the default user and session.
func (r ChatRequest) WithDefaults() ChatRequest {
	if r.UserID == "" {
		r.UserID = DefaultUserID
	}
	if r.SessionID == "" {
		r.SessionID = DefaultSessionID
	}
	return r
}

// Validate checks that the message text is present.
func (r ChatRequest) Validate() error {
	if r.Text == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}

type ChatResponse struct {
	Response string `json:"response"`
}

// SessionsResponse lists the session IDs of a user.
type SessionsResponse struct {
	Sessions []string `json:"sessions"`
}

type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GraphResponse carries the agent graph as Graphviz DOT source.
type GraphResponse struct {
	DotSrc string `json:"dot_src"`
}

// Frame is a message sent over the WebSocket.
type Frame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	FramePartial = "partial"
	FrameFinal   = "final"
)

// SessionPath holds the path parameters of session routes.
type SessionPath struct {
	UserID    string `mapstructure:"user_id,required"`
	SessionID string `mapstructure:"session_id,optional"`
}

// SessionPathFromHTTPParameters decodes mux route variables.
func SessionPathFromHTTPParameters(vars map[string]string) (SessionPath, error) {
	var path SessionPath
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &path,
	})
	if err != nil {
		return path, err
	}
	if err := decoder.Decode(vars); err != nil {
		return path, err
	}
	if path.UserID == "" {
		return path, fmt.Errorf("user_id parameter is required")
	}
	return path, nil
}

// PredictRequest is the body Vertex AI sends to a serving container.
type PredictRequest struct {
	Instances []PredictInstance `json:"instances"`
}

type PredictInstance struct {
	UserID    string `json:"user_id" mapstructure:"user_id"`
	SessionID string `json:"session_id" mapstructure:"session_id"`
	Message   string `json:"message" mapstructure:"message"`
}

type PredictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

type Prediction struct {
	Response string `json:"response"`
}
