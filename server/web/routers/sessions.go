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

package routers

import (
	"net/http"

	"github.com/adk-starter/agentkit/server/web/handlers"
)

// SessionsAPIRouter defines the routes for the Sessions API.
type SessionsAPIRouter struct {
	sessionController *handlers.SessionsAPIController
}

// NewSessionsAPIRouter creates a new SessionsAPIRouter.
func NewSessionsAPIRouter(controller *handlers.SessionsAPIController) *SessionsAPIRouter {
	return &SessionsAPIRouter{sessionController: controller}
}

// Routes returns the routes for the Sessions API.
func (r *SessionsAPIRouter) Routes() Routes {
	return Routes{
		Route{
			Name:        "ListSessions",
			Methods:     []string{http.MethodGet},
			Pattern:     "/api/sessions/{user_id}",
			HandlerFunc: handlers.FromErrorHandler(r.sessionController.ListSessionsHTTP),
		},
		Route{
			Name:        "SessionHistory",
			Methods:     []string{http.MethodGet},
			Pattern:     "/api/sessions/{user_id}/{session_id}/history",
			HandlerFunc: handlers.FromErrorHandler(r.sessionController.SessionHistoryHTTP),
		},
	}
}
