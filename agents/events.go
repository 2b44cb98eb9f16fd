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

package agents

import (
	"google.golang.org/adk/session"
)

// IsFinalResponse reports whether ev is the agent's answer for the turn
// rather than a streamed chunk or a tool round trip.
func IsFinalResponse(ev *session.Event) bool {
	if ev == nil {
		return false
	}
	if len(ev.LongRunningToolIDs) > 0 {
		return true
	}
	if ev.Partial {
		return false
	}
	if ev.Content == nil {
		return true
	}
	for _, p := range ev.Content.Parts {
		if p == nil {
			continue
		}
		if p.FunctionCall != nil || p.FunctionResponse != nil {
			return false
		}
	}
	return true
}

// FirstText returns the text of the first part of the event content.
func FirstText(ev *session.Event) string {
	if ev == nil || ev.Content == nil || len(ev.Content.Parts) == 0 || ev.Content.Parts[0] == nil {
		return ""
	}
	return ev.Content.Parts[0].Text
}

// FinalResponse returns the first text of the first final event that has
// content, or "" when there is none.
func FinalResponse(events []*session.Event) string {
	for _, ev := range events {
		if IsFinalResponse(ev) && ev.Content != nil && len(ev.Content.Parts) > 0 {
			return FirstText(ev)
		}
	}
	return ""
}
