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
	"context"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/adk-starter/agentkit/agents"
	"github.com/adk-starter/agentkit/server/web/models"
)

const (
	maxWSMessageSize = 512 * 1024
	wsWriteTimeout   = 10 * time.Second
)

// WebSocketController streams agent replies for messages received over a
// WebSocket bound to one user and session.
type WebSocketController struct {
	agent    AgentService
	metrics  *Metrics
	mode     agent.StreamingMode
	upgrader websocket.Upgrader
}

// NewWebSocketController creates a new WebSocketController. Replies are
// streamed with server-sent chunks so partial text reaches the client early.
func NewWebSocketController(svc AgentService, metrics *Metrics) *WebSocketController {
	return &WebSocketController{
		agent:   svc,
		metrics: metrics,
		mode:    agent.StreamingModeSSE,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The UI is served from the same origin; other clients are
			// local tools.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// WebSocketHTTP upgrades the connection and runs the receive-process-send
// loop until the client disconnects.
func (c *WebSocketController) WebSocketHTTP(rw http.ResponseWriter, req *http.Request) {
	log := logr.FromContextOrDiscard(req.Context())
	path, err := models.SessionPathFromHTTPParameters(mux.Vars(req))
	if err != nil || path.SessionID == "" {
		http.Error(rw, "user_id and session_id parameters are required", http.StatusBadRequest)
		return
	}
	conn, err := c.upgrader.Upgrade(rw, req, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Error(err, "WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxWSMessageSize)

	ctx := req.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info("WebSocket read error", "error", err.Error())
			}
			log.Info("WebSocket disconnected", "userID", path.UserID, "sessionID", path.SessionID)
			return
		}
		if c.metrics != nil {
			c.metrics.WSMessages.Inc()
		}
		log.Info("Received WebSocket message", "text", string(data))

		if err := c.reply(ctx, conn, path, string(data)); err != nil {
			log.Error(err, "Failed to reply over WebSocket", "userID", path.UserID, "sessionID", path.SessionID)
			return
		}
	}
}

// reply runs one turn and sends a frame for every event with text. A failed
// turn is reported to the client as a final frame and keeps the connection
// open; only write failures end it.
func (c *WebSocketController) reply(ctx context.Context, conn *websocket.Conn, path models.SessionPath, text string) error {
	start := time.Now()
	msg := genai.NewContentFromText(text, genai.RoleUser)
	var runErr error
	for ev, err := range c.agent.RunStream(ctx, path.UserID, path.SessionID, msg, c.mode) {
		if err != nil {
			runErr = err
			break
		}
		frame, ok := FrameFor(ev)
		if !ok {
			continue
		}
		if err := writeFrame(conn, frame); err != nil {
			return err
		}
	}
	c.metrics.ObserveRun("websocket", start, runErr)
	if runErr != nil {
		logr.FromContextOrDiscard(ctx).Error(runErr, "Agent run failed")
		return writeFrame(conn, models.Frame{Type: models.FrameFinal, Text: "Error: " + runErr.Error()})
	}
	return nil
}

// FrameFor converts an event into a WebSocket frame. Events without text in
// their first part produce no frame.
func FrameFor(ev *session.Event) (models.Frame, bool) {
	text := agents.FirstText(ev)
	if text == "" {
		return models.Frame{}, false
	}
	if agents.IsFinalResponse(ev) {
		return models.Frame{Type: models.FrameFinal, Text: text}, true
	}
	return models.Frame{Type: models.FramePartial, Text: text}, true
}

func writeFrame(conn *websocket.Conn, frame models.Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
