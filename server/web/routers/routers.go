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

// Package routers maps the web server controllers to routes.
package routers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Route describes one endpoint.
type Route struct {
	Name        string
	Methods     []string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// Routes is a list of routes of one API.
type Routes []Route

// Router provides the routes of one API.
type Router interface {
	Routes() Routes
}

// Middleware wraps the handler of a named route.
type Middleware func(name string, next http.Handler) http.Handler

// SetupRouter registers the routes of all subrouters on router, wrapping each
// handler with the middlewares in order.
func SetupRouter(router *mux.Router, middlewares []Middleware, subrouters ...Router) *mux.Router {
	for _, api := range subrouters {
		for _, route := range api.Routes() {
			var handler http.Handler = route.HandlerFunc
			for _, mw := range middlewares {
				handler = mw(route.Name, handler)
			}
			router.Methods(route.Methods...).
				Path(route.Pattern).
				Name(route.Name).
				Handler(handler)
		}
	}
	return router
}
