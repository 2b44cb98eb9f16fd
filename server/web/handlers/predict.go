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
	"encoding/json"
	"net/http"
	"time"

	"github.com/adk-starter/agentkit/agents"
	"github.com/adk-starter/agentkit/server/web/models"
)

// PredictController serves the prediction and health routes expected by a
// Vertex AI custom serving container.
type PredictController struct {
	agent   AgentService
	metrics *Metrics
}

// NewPredictController creates a new PredictController.
func NewPredictController(agent AgentService, metrics *Metrics) *PredictController {
	return &PredictController{agent: agent, metrics: metrics}
}

// PredictHTTP answers every instance in order.
func (c *PredictController) PredictHTTP(rw http.ResponseWriter, req *http.Request) error {
	var predictRequest models.PredictRequest
	if req.ContentLength != 0 {
		if err := json.NewDecoder(req.Body).Decode(&predictRequest); err != nil {
			return newStatusError(err, http.StatusBadRequest)
		}
	}
	predictions := make([]models.Prediction, 0, len(predictRequest.Instances))
	for _, instance := range predictRequest.Instances {
		userID, sessionID := instance.UserID, instance.SessionID
		if userID == "" {
			userID = models.DefaultUserID
		}
		if sessionID == "" {
			sessionID = models.DefaultSessionID
		}
		start := time.Now()
		response, err := c.agent.RunAndGetResponse(req.Context(), userID, sessionID, instance.Message)
		c.metrics.ObserveRun("predict", start, err)
		if err != nil {
			return err
		}
		if response == "" {
			response = agents.NoResponse
		}
		predictions = append(predictions, models.Prediction{Response: response})
	}
	EncodeJSONResponse(models.PredictResponse{Predictions: predictions}, http.StatusOK, rw)
	return nil
}

// HealthHTTP reports that the server is up.
func (c *PredictController) HealthHTTP(rw http.ResponseWriter, req *http.Request) {
	EncodeJSONResponse(map[string]string{"status": "ok"}, http.StatusOK, rw)
}
