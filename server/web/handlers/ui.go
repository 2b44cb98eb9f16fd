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
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// UIController renders the chat page.
type UIController struct {
	agent AgentService
}

// NewUIController creates a new UIController.
func NewUIController(agent AgentService) *UIController {
	return &UIController{agent: agent}
}

// IndexHTTP serves the chat page titled with the agent name.
func (c *UIController) IndexHTTP(rw http.ResponseWriter, req *http.Request) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, struct{ AgentName string }{c.agent.Name()}); err != nil {
		return err
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(rw)
	return err
}
