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

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/adk-starter/agentkit/agents"
	"github.com/adk-starter/agentkit/config"
	"github.com/adk-starter/agentkit/server/web/handlers"
	"github.com/adk-starter/agentkit/server/web/models"
)

const testApp = "test_app"

var sortedIDs = cmpopts.SortSlices(func(a, b string) bool { return a < b })

// fakeAgent answers with a fixed response and keeps sessions in memory.
type fakeAgent struct {
	response string
	runErr   error
	getErr   error
	listErr  error
	stream   []*session.Event
	sessions session.Service

	calls []string
}

func newFakeAgent(response string) *fakeAgent {
	return &fakeAgent{response: response, sessions: session.InMemoryService()}
}

func (f *fakeAgent) Name() string { return "fake_agent" }

func (f *fakeAgent) RunAndGetResponse(_ context.Context, userID, sessionID, text string) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s/%s: %s", userID, sessionID, text))
	return f.response, f.runErr
}

// RunStream yields the configured events, then runErr when it is set.
func (f *fakeAgent) RunStream(_ context.Context, userID, sessionID string, msg *genai.Content, _ agent.StreamingMode) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		f.calls = append(f.calls, fmt.Sprintf("%s/%s: %s", userID, sessionID, msg.Parts[0].Text))
		for _, ev := range f.stream {
			if !yield(ev, nil) {
				return
			}
		}
		if f.runErr != nil {
			yield(nil, f.runErr)
		}
	}
}

func (f *fakeAgent) GetSession(ctx context.Context, userID, sessionID string) (session.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	resp, err := f.sessions.Get(ctx, &session.GetRequest{AppName: testApp, UserID: userID, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", agents.ErrSessionNotFound, sessionID)
	}
	return resp.Session, nil
}

func (f *fakeAgent) ListSessions(ctx context.Context, userID string) ([]session.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	resp, err := f.sessions.List(ctx, &session.ListRequest{AppName: testApp, UserID: userID})
	if err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (f *fakeAgent) addSession(t *testing.T, userID, sessionID string, events ...*session.Event) {
	t.Helper()
	ctx := t.Context()
	resp, err := f.sessions.Create(ctx, &session.CreateRequest{AppName: testApp, UserID: userID, SessionID: sessionID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, ev := range events {
		if err := f.sessions.AppendEvent(ctx, resp.Session, ev); err != nil {
			t.Fatalf("AppendEvent() error = %v", err)
		}
	}
}

func textEvent(author, text string) *session.Event {
	ev := session.NewEvent("inv")
	ev.Author = author
	ev.LLMResponse = model.LLMResponse{Content: genai.NewContentFromText(text, genai.RoleModel)}
	return ev
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestChat(t *testing.T) {
	tc := []struct {
		name         string
		body         string
		response     string
		runErr       error
		wantStatus   int
		wantResponse string
		wantCall     string
	}{
		{
			name:         "explicit session",
			body:         `{"text":"Hello","user_id":"test_user","session_id":"test_session"}`,
			response:     "Test chat response",
			wantStatus:   http.StatusOK,
			wantResponse: "Test chat response",
			wantCall:     "test_user/test_session: Hello",
		},
		{
			name:         "default session",
			body:         `{"text":"Hello"}`,
			response:     "Hi",
			wantStatus:   http.StatusOK,
			wantResponse: "Hi",
			wantCall:     "user/session: Hello",
		},
		{
			name:         "empty response",
			body:         `{"text":"Hello"}`,
			wantStatus:   http.StatusOK,
			wantResponse: agents.NoResponse,
			wantCall:     "user/session: Hello",
		},
		{
			name:       "missing text",
			body:       `{"user_id":"u"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "agent failure",
			body:       `{"text":"Hello"}`,
			runErr:     errors.New("model unavailable"),
			wantStatus: http.StatusInternalServerError,
			wantCall:   "user/session: Hello",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeAgent(tt.response)
			fake.runErr = tt.runErr
			controller := handlers.NewChatAPIController(fake, handlers.NewMetrics())

			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handlers.FromErrorHandler(controller.ChatHTTP)(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.wantStatus)
			}
			if tt.wantCall != "" {
				if diff := cmp.Diff([]string{tt.wantCall}, fake.calls); diff != "" {
					t.Errorf("agent calls mismatch (-want +got):\n%s", diff)
				}
			}
			if tt.wantStatus != http.StatusOK {
				if msg := decodeError(t, rr); msg == "" {
					t.Error("error body is empty")
				}
				return
			}
			var got models.ChatResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got.Response != tt.wantResponse {
				t.Errorf("response = %q, want %q", got.Response, tt.wantResponse)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	fake := newFakeAgent("")
	fake.addSession(t, "test_user", "session1")
	fake.addSession(t, "test_user", "session2")
	fake.addSession(t, "other_user", "session3")
	controller := handlers.NewSessionsAPIController(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/test_user", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "test_user"})
	rr := httptest.NewRecorder()
	handlers.FromErrorHandler(controller.ListSessionsHTTP)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	var got models.SessionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := models.SessionsResponse{Sessions: []string{"session1", "session2"}}
	if diff := cmp.Diff(want, got, sortedIDs); diff != "" {
		t.Errorf("ListSessions() mismatch (-want +got):\n%s", diff)
	}
}

func TestListSessions_Failure(t *testing.T) {
	fake := newFakeAgent("")
	fake.listErr = errors.New("backend down")
	controller := handlers.NewSessionsAPIController(fake)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/sessions/u", nil), map[string]string{"user_id": "u"})
	rr := httptest.NewRecorder()
	handlers.FromErrorHandler(controller.ListSessionsHTTP)(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusInternalServerError)
	}
	if got := decodeError(t, rr); got != "backend down" {
		t.Errorf("error = %q, want %q", got, "backend down")
	}
}

func TestSessionHistory(t *testing.T) {
	call := session.NewEvent("inv")
	call.Author = "agent"
	call.LLMResponse = model.LLMResponse{Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
		genai.NewPartFromFunctionCall("calculate", map[string]any{"expression": "1+1"}),
	}}}

	fake := newFakeAgent("")
	fake.addSession(t, "test_user", "test_session",
		textEvent("user", "User message"),
		call,
		textEvent("agent", "Agent response"),
	)
	fake.addSession(t, "test_user", "empty_session")
	controller := handlers.NewSessionsAPIController(fake)

	tc := []struct {
		name       string
		vars       map[string]string
		wantStatus int
		want       models.HistoryResponse
		wantErr    string
	}{
		{
			name:       "session with events",
			vars:       map[string]string{"user_id": "test_user", "session_id": "test_session"},
			wantStatus: http.StatusOK,
			want: models.HistoryResponse{History: []models.HistoryEntry{
				{Sender: "user", Text: "User message"},
				{Sender: "agent", Text: "[Function Call: calculate]"},
				{Sender: "agent", Text: "Agent response"},
			}},
		},
		{
			name:       "session without events",
			vars:       map[string]string{"user_id": "test_user", "session_id": "empty_session"},
			wantStatus: http.StatusOK,
			want:       models.HistoryResponse{History: []models.HistoryEntry{}},
		},
		{
			name:       "session not found",
			vars:       map[string]string{"user_id": "test_user", "session_id": "nonexistent_session"},
			wantStatus: http.StatusNotFound,
			wantErr:    "Session not found",
		},
		{
			name:       "user missing",
			vars:       map[string]string{"session_id": "test_session"},
			wantStatus: http.StatusBadRequest,
			wantErr:    "user_id parameter is required",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions/history", nil)
			req = mux.SetURLVars(req, tt.vars)
			rr := httptest.NewRecorder()
			handlers.FromErrorHandler(controller.SessionHistoryHTTP)(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.wantStatus)
			}
			if tt.wantErr != "" {
				if got := decodeError(t, rr); got != tt.wantErr {
					t.Errorf("error = %q, want %q", got, tt.wantErr)
				}
				return
			}
			var got models.HistoryResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SessionHistory() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPredict(t *testing.T) {
	fake := newFakeAgent("Answer")
	controller := handlers.NewPredictController(fake, nil)

	body, err := json.Marshal(models.PredictRequest{Instances: []models.PredictInstance{
		{UserID: "u1", SessionID: "s1", Message: "first"},
		{Message: "second"},
	}})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handlers.FromErrorHandler(controller.PredictHTTP)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	var got models.PredictResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := models.PredictResponse{Predictions: []models.Prediction{{Response: "Answer"}, {Response: "Answer"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Predict() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"u1/s1: first", "user/session: second"}, fake.calls); diff != "" {
		t.Errorf("agent calls mismatch (-want +got):\n%s", diff)
	}
}

func TestPredict_NoInstances(t *testing.T) {
	controller := handlers.NewPredictController(newFakeAgent(""), nil)
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handlers.FromErrorHandler(controller.PredictHTTP)(rr, req)

	if got, want := strings.TrimSpace(rr.Body.String()), `{"predictions":[]}`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestIndex(t *testing.T) {
	controller := handlers.NewUIController(newFakeAgent(""))
	rr := httptest.NewRecorder()
	handlers.FromErrorHandler(controller.IndexHTTP)(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "<title>fake_agent - Chat Interface</title>") {
		t.Errorf("page does not carry the agent name:\n%s", rr.Body.String())
	}
}

func TestFrameFor(t *testing.T) {
	partial := textEvent("agent", "chunk")
	partial.Partial = true

	tc := []struct {
		name   string
		ev     *session.Event
		want   models.Frame
		wantOK bool
	}{
		{name: "final", ev: textEvent("agent", "done"), want: models.Frame{Type: "final", Text: "done"}, wantOK: true},
		{name: "partial", ev: partial, want: models.Frame{Type: "partial", Text: "chunk"}, wantOK: true},
		{name: "empty text", ev: textEvent("agent", ""), wantOK: false},
		{name: "nil", ev: nil, wantOK: false},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := handlers.FrameFor(tt.ev)
			if ok != tt.wantOK {
				t.Fatalf("FrameFor() ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FrameFor() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// edgeGrapher renders the highlighted edges as text.
type edgeGrapher struct{}

func (edgeGrapher) Graph(highlight []agents.Edge) (string, error) {
	var b strings.Builder
	b.WriteString("digraph")
	for _, e := range highlight {
		fmt.Fprintf(&b, " %s->%s", e.From, e.To)
	}
	return b.String(), nil
}

func TestGraph(t *testing.T) {
	call := session.NewEvent("inv")
	call.Author = "agent"
	call.LLMResponse = model.LLMResponse{Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
		genai.NewPartFromFunctionCall("calculate", map[string]any{"expression": "1+1"}),
	}}}
	fake := newFakeAgent("")
	fake.addSession(t, "test_user", "test_session", textEvent("user", "hi"), call)
	controller := handlers.NewDebugAPIController(fake, edgeGrapher{})

	tc := []struct {
		name       string
		vars       map[string]string
		wantStatus int
		want       string
	}{
		{name: "agent only", wantStatus: http.StatusOK, want: "digraph"},
		{
			name:       "session trace",
			vars:       map[string]string{"user_id": "test_user", "session_id": "test_session"},
			wantStatus: http.StatusOK,
			want:       "digraph agent->calculate",
		},
		{
			name:       "session not found",
			vars:       map[string]string{"user_id": "test_user", "session_id": "missing"},
			wantStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/debug/graph", nil)
			req = mux.SetURLVars(req, tt.vars)
			rr := httptest.NewRecorder()
			handlers.FromErrorHandler(controller.GraphHTTP)(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got models.GraphResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got.DotSrc != tt.want {
				t.Errorf("DotSrc = %q, want %q", got.DotSrc, tt.want)
			}
		})
	}
}

func TestSessionHistory_ServiceError(t *testing.T) {
	fake := newFakeAgent("")
	fake.getErr = errors.New("session backend unavailable")
	controller := handlers.NewSessionsAPIController(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/history", nil)
	req = mux.SetURLVars(req, map[string]string{"user_id": "u1", "session_id": "s1"})
	rr := httptest.NewRecorder()
	handlers.FromErrorHandler(controller.SessionHistoryHTTP)(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusInternalServerError)
	}
	if got, want := decodeError(t, rr), "session backend unavailable"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

// replyLLM answers every request with a fixed text.
type replyLLM struct{}

func (replyLLM) Name() string { return "reply" }

func (replyLLM) GenerateContent(context.Context, *model.LLMRequest, bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		yield(&model.LLMResponse{Content: genai.NewContentFromText("ok", genai.RoleModel), TurnComplete: true}, nil)
	}
}

// brokenGetSessions fails every Get while List keeps working.
type brokenGetSessions struct {
	session.Service
}

func (brokenGetSessions) Get(context.Context, *session.GetRequest) (*session.GetResponse, error) {
	return nil, errors.New("storage timeout")
}

func TestSessionHistory_AgentSessionService(t *testing.T) {
	ctx := t.Context()
	a, err := agents.New(ctx, agents.Config{
		Name:           "history_agent",
		LLM:            replyLLM{},
		SessionService: brokenGetSessions{Service: session.InMemoryService()},
		Settings:       &config.Settings{DevMode: true},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := a.CreateSession(ctx, "u1", "listed", nil); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	controller := handlers.NewSessionsAPIController(a)

	tc := []struct {
		name       string
		sessionID  string
		wantStatus int
		wantErr    string
	}{
		{name: "listed session fails to load", sessionID: "listed", wantStatus: http.StatusInternalServerError, wantErr: "storage timeout"},
		{name: "unlisted session", sessionID: "unknown", wantStatus: http.StatusNotFound, wantErr: "Session not found"},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sessions/history", nil)
			req = mux.SetURLVars(req, map[string]string{"user_id": "u1", "session_id": tt.sessionID})
			rr := httptest.NewRecorder()
			handlers.FromErrorHandler(controller.SessionHistoryHTTP)(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.wantStatus)
			}
			if got := decodeError(t, rr); got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func dialWebSocket(t *testing.T, fake *fakeAgent) *websocket.Conn {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/ws/{user_id}/{session_id}", handlers.NewWebSocketController(fake, nil).WebSocketHTTP)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/u1/s1", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, text string, frames int) []models.Frame {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	var got []models.Frame
	for range frames {
		if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			t.Fatalf("SetReadDeadline() error = %v", err)
		}
		var f models.Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		got = append(got, f)
	}
	return got
}

func partialEvent(text string) *session.Event {
	ev := textEvent("agent", text)
	ev.Partial = true
	return ev
}

func TestWebSocket_StreamsPartialFrames(t *testing.T) {
	call := session.NewEvent("inv")
	call.Author = "agent"
	call.LLMResponse = model.LLMResponse{Content: &genai.Content{Parts: []*genai.Part{
		genai.NewPartFromFunctionCall("calculate", nil),
	}}}

	fake := newFakeAgent("")
	fake.stream = []*session.Event{
		partialEvent("Hel"),
		partialEvent("lo"),
		call,
		textEvent("agent", "Hello"),
	}
	conn := dialWebSocket(t, fake)

	want := []models.Frame{
		{Type: models.FramePartial, Text: "Hel"},
		{Type: models.FramePartial, Text: "lo"},
		{Type: models.FrameFinal, Text: "Hello"},
	}
	if diff := cmp.Diff(want, exchange(t, conn, "hi", len(want))); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestWebSocket_ReportsRunErrors(t *testing.T) {
	fake := newFakeAgent("")
	fake.stream = []*session.Event{partialEvent("Hel")}
	fake.runErr = errors.New("model unavailable")
	conn := dialWebSocket(t, fake)

	want := []models.Frame{
		{Type: models.FramePartial, Text: "Hel"},
		{Type: models.FrameFinal, Text: "Error: model unavailable"},
	}
	// The connection stays open after a failed turn.
	for _, msg := range []string{"first", "second"} {
		if diff := cmp.Diff(want, exchange(t, conn, msg, len(want))); diff != "" {
			t.Errorf("frames for %q mismatch (-want +got):\n%s", msg, diff)
		}
	}
}
