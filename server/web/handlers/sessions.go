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
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adk-starter/agentkit/agents"
	"github.com/adk-starter/agentkit/server/web/models"
)

// SessionsAPIController is the controller for the Sessions API.
type SessionsAPIController struct {
	agent AgentService
}

// NewSessionsAPIController creates a new SessionsAPIController.
func NewSessionsAPIController(agent AgentService) *SessionsAPIController {
	return &SessionsAPIController{agent: agent}
}

// ListSessionsHTTP handles listing the session IDs of a user.
func (c *SessionsAPIController) ListSessionsHTTP(rw http.ResponseWriter, req *http.Request) error {
	path, err := models.SessionPathFromHTTPParameters(mux.Vars(req))
	if err != nil {
		return newStatusError(err, http.StatusBadRequest)
	}
	sessions, err := c.agent.ListSessions(req.Context(), path.UserID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID())
	}
	EncodeJSONResponse(models.SessionsResponse{Sessions: ids}, http.StatusOK, rw)
	return nil
}

// SessionHistoryHTTP returns the conversation of a session as display
// entries. A session that does not exist is a 404.
func (c *SessionsAPIController) SessionHistoryHTTP(rw http.ResponseWriter, req *http.Request) error {
	path, err := models.SessionPathFromHTTPParameters(mux.Vars(req))
	if err != nil {
		return newStatusError(err, http.StatusBadRequest)
	}
	if path.SessionID == "" {
		return newStatusError(fmt.Errorf("session_id parameter is required"), http.StatusBadRequest)
	}
	s, err := c.agent.GetSession(req.Context(), path.UserID, path.SessionID)
	if errors.Is(err, agents.ErrSessionNotFound) {
		return newStatusError(errors.New("Session not found"), http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	EncodeJSONResponse(models.HistoryResponse{History: models.SessionHistory(s)}, http.StatusOK, rw)
	return nil
}
