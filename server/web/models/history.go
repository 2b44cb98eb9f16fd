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

package models

import (
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// EventKind classifies what an event carries for display.
type EventKind int

const (
	EventEmpty EventKind = iota
	EventText
	EventFunctionCall
	EventFunctionResponse
)

// DecodedEvent is a session event reduced to what the history shows.
type DecodedEvent struct {
	Kind   EventKind
	Author string
	// Text is the first part's text for EventText and the tool name for
	// EventFunctionCall.
	Text string
}

// DecodeEvent classifies ev. The first part's text wins, then the first
// function call, then any function response.
func DecodeEvent(ev *session.Event) DecodedEvent {
	if ev == nil {
		return DecodedEvent{}
	}
	d := DecodedEvent{Author: ev.Author}
	if ev.Content == nil || len(ev.Content.Parts) == 0 {
		return d
	}
	if p := ev.Content.Parts[0]; p != nil && p.Text != "" {
		d.Kind, d.Text = EventText, p.Text
		return d
	}
	if call := firstFunctionCall(ev.Content); call != nil {
		d.Kind, d.Text = EventFunctionCall, call.Name
		return d
	}
	if hasFunctionResponse(ev.Content) {
		d.Kind = EventFunctionResponse
	}
	return d
}

func firstFunctionCall(c *genai.Content) *genai.FunctionCall {
	for _, p := range c.Parts {
		if p != nil && p.FunctionCall != nil {
			return p.FunctionCall
		}
	}
	return nil
}

func hasFunctionResponse(c *genai.Content) bool {
	for _, p := range c.Parts {
		if p != nil && p.FunctionResponse != nil {
			return true
		}
	}
	return false
}

// HistoryEntry is one line of a displayed conversation.
type HistoryEntry struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Entry renders the event for display. ok is false for events without
// anything to show.
func (d DecodedEvent) Entry() (entry HistoryEntry, ok bool) {
	sender := "agent"
	if d.Author == "user" {
		sender = "user"
	}
	switch d.Kind {
	case EventText:
		return HistoryEntry{Sender: sender, Text: d.Text}, true
	case EventFunctionCall:
		return HistoryEntry{Sender: sender, Text: "[Function Call: " + d.Text + "]"}, true
	case EventFunctionResponse:
		return HistoryEntry{Sender: sender, Text: "[Function Response]"}, true
	default:
		return HistoryEntry{}, false
	}
}

// NormalizeHistory converts events into display entries, dropping events
// with nothing to show. The result is never nil.
func NormalizeHistory(events []*session.Event) []HistoryEntry {
	history := []HistoryEntry{}
	for _, ev := range events {
		if entry, ok := DecodeEvent(ev).Entry(); ok {
			history = append(history, entry)
		}
	}
	return history
}

// SessionHistory normalizes all events of s.
func SessionHistory(s session.Session) []HistoryEntry {
	var events []*session.Event
	for ev := range s.Events().All() {
		events = append(events, ev)
	}
	return NormalizeHistory(events)
}
