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

// ChatAPIRouter defines the routes for the chat UI and Chat API.
type ChatAPIRouter struct {
	chatController *handlers.ChatAPIController
	uiController   *handlers.UIController
}

// NewChatAPIRouter creates a new ChatAPIRouter.
func NewChatAPIRouter(chat *handlers.ChatAPIController, ui *handlers.UIController) *ChatAPIRouter {
	return &ChatAPIRouter{chatController: chat, uiController: ui}
}

// Routes returns the routes for the Chat API.
func (r *ChatAPIRouter) Routes() Routes {
	return Routes{
		Route{
			Name:        "Index",
			Methods:     []string{http.MethodGet},
			Pattern:     "/",
			HandlerFunc: handlers.FromErrorHandler(r.uiController.IndexHTTP),
		},
		Route{
			Name:        "Chat",
			Methods:     []string{http.MethodPost},
			Pattern:     "/api/chat",
			HandlerFunc: handlers.FromErrorHandler(r.chatController.ChatHTTP),
		},
	}
}
