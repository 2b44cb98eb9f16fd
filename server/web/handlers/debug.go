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
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/adk/session"

	"github.com/adk-starter/agentkit/agents"
	"github.com/adk-starter/agentkit/server/web/models"
)

// Grapher renders an agent as a graph with the given edges highlighted.
type Grapher interface {
	Graph(highlight []agents.Edge) (string, error)
}

// DebugAPIController serves the agent graph, optionally highlighting the
// path a session took.
type DebugAPIController struct {
	agent   AgentService
	grapher Grapher
}

// NewDebugAPIController creates a new DebugAPIController.
func NewDebugAPIController(agent AgentService, grapher Grapher) *DebugAPIController {
	return &DebugAPIController{agent: agent, grapher: grapher}
}

// GraphHTTP returns the agent graph. With user_id and session_id in the path
// the edges that session walked are highlighted.
func (c *DebugAPIController) GraphHTTP(rw http.ResponseWriter, req *http.Request) error {
	var highlight []agents.Edge
	vars := mux.Vars(req)
	if vars["user_id"] != "" && vars["session_id"] != "" {
		s, err := c.agent.GetSession(req.Context(), vars["user_id"], vars["session_id"])
		if errors.Is(err, agents.ErrSessionNotFound) {
			return newStatusError(errors.New("Session not found"), http.StatusNotFound)
		}
		if err != nil {
			return err
		}
		var events []*session.Event
		for ev := range s.Events().All() {
			events = append(events, ev)
		}
		highlight = agents.Trace(events)
	}
	dot, err := c.grapher.Graph(highlight)
	if err != nil {
		return err
	}
	EncodeJSONResponse(models.GraphResponse{DotSrc: dot}, http.StatusOK, rw)
	return nil
}
