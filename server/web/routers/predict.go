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

// PredictAPIRouter defines the routes of a Vertex AI serving container.
type PredictAPIRouter struct {
	predictController *handlers.PredictController
}

// NewPredictAPIRouter creates a new PredictAPIRouter.
func NewPredictAPIRouter(controller *handlers.PredictController) *PredictAPIRouter {
	return &PredictAPIRouter{predictController: controller}
}

// Routes returns the routes for the Predict API.
func (r *PredictAPIRouter) Routes() Routes {
	return Routes{
		Route{
			Name:        "Predict",
			Methods:     []string{http.MethodPost},
			Pattern:     "/predict",
			HandlerFunc: handlers.FromErrorHandler(r.predictController.PredictHTTP),
		},
		Route{
			Name:        "Health",
			Methods:     []string{http.MethodGet},
			Pattern:     "/health",
			HandlerFunc: r.predictController.HealthHTTP,
		},
	}
}
