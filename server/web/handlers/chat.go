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

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/adk-starter/agentkit/agents"
	"github.com/adk-starter/agentkit/server/web/models"
)

// ChatAPIController runs one agent turn per request.
type ChatAPIController struct {
	agent   AgentService
	metrics *Metrics
}

// NewChatAPIController creates a new ChatAPIController. metrics may be nil.
func NewChatAPIController(agent AgentService, metrics *Metrics) *ChatAPIController {
	return &ChatAPIController{agent: agent, metrics: metrics}
}

// ChatHTTP handles POST /api/chat.
func (c *ChatAPIController) ChatHTTP(rw http.ResponseWriter, req *http.Request) error {
	var chatRequest models.ChatRequest
	if err := json.NewDecoder(req.Body).Decode(&chatRequest); err != nil {
		return newStatusError(err, http.StatusBadRequest)
	}
	if err := chatRequest.Validate(); err != nil {
		return newStatusError(err, http.StatusBadRequest)
	}
	chatRequest = chatRequest.WithDefaults()
	logr.FromContextOrDiscard(req.Context()).Info("Received message", "text", chatRequest.Text,
		"userID", chatRequest.UserID, "sessionID", chatRequest.SessionID)

	start := time.Now()
	response, err := c.agent.RunAndGetResponse(req.Context(), chatRequest.UserID, chatRequest.SessionID, chatRequest.Text)
	c.metrics.ObserveRun("chat", start, err)
	if err != nil {
		return err
	}
	if response == "" {
		response = agents.NoResponse
	}
	EncodeJSONResponse(models.ChatResponse{Response: response}, http.StatusOK, rw)
	return nil
}
