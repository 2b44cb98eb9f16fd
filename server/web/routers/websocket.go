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

// WebSocketRouter defines the streaming chat route.
type WebSocketRouter struct {
	controller *handlers.WebSocketController
}

// NewWebSocketRouter creates a new WebSocketRouter.
func NewWebSocketRouter(controller *handlers.WebSocketController) *WebSocketRouter {
	return &WebSocketRouter{controller: controller}
}

// Routes returns the WebSocket route.
func (r *WebSocketRouter) Routes() Routes {
	return Routes{
		Route{
			Name:        "WebSocket",
			Methods:     []string{http.MethodGet},
			Pattern:     "/ws/{user_id}/{session_id}",
			HandlerFunc: r.controller.WebSocketHTTP,
		},
	}
}
