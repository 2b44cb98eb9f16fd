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

// DebugAPIRouter defines the routes for the Debug API.
type DebugAPIRouter struct {
	debugController *handlers.DebugAPIController
}

// NewDebugAPIRouter creates a new DebugAPIRouter.
func NewDebugAPIRouter(controller *handlers.DebugAPIController) *DebugAPIRouter {
	return &DebugAPIRouter{debugController: controller}
}

// Routes returns the routes for the Debug API.
func (r *DebugAPIRouter) Routes() Routes {
	return Routes{
		Route{
			Name:        "AgentGraph",
			Methods:     []string{http.MethodGet},
			Pattern:     "/debug/graph",
			HandlerFunc: handlers.FromErrorHandler(r.debugController.GraphHTTP),
		},
		Route{
			Name:        "SessionGraph",
			Methods:     []string{http.MethodGet},
			Pattern:     "/debug/graph/{user_id}/{session_id}",
			HandlerFunc: handlers.FromErrorHandler(r.debugController.GraphHTTP),
		},
	}
}
