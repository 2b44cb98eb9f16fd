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

package deploy

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/go-logr/logr"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/adk-starter/agentkit/agents"
)

const (
	predictRoute = "/predict"
	healthRoute  = "/health"
)

// Endpoints deploys the web server image as a Vertex AI prediction endpoint.
type Endpoints struct {
	project string
	region  string

	models     *aiplatform.ModelClient
	endpoints  *aiplatform.EndpointClient
	prediction *aiplatform.PredictionClient
}

// NewEndpoints connects to the regional Vertex AI endpoint.
func NewEndpoints(ctx context.Context, project, region string, opts ...option.ClientOption) (*Endpoints, error) {
	e := &Endpoints{project: project, region: region}
	var err error
	if e.models, err = aiplatform.NewModelClient(ctx, opts...); err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	if e.endpoints, err = aiplatform.NewEndpointClient(ctx, opts...); err != nil {
		e.models.Close()
		return nil, fmt.Errorf("failed to create endpoint client: %w", err)
	}
	if e.prediction, err = aiplatform.NewPredictionClient(ctx, opts...); err != nil {
		e.models.Close()
		e.endpoints.Close()
		return nil, fmt.Errorf("failed to create prediction client: %w", err)
	}
	return e, nil
}

func (e *Endpoints) Close() error {
	return errors.Join(e.models.Close(), e.endpoints.Close(), e.prediction.Close())
}

// ContainerSpec describes the serving container: the agentkit server with
// its prediction and health routes.
func ContainerSpec(spec EndpointSpec) *aiplatformpb.ModelContainerSpec {
	env := make([]*aiplatformpb.EnvVar, 0, len(spec.Env))
	for _, k := range slices.Sorted(maps.Keys(spec.Env)) {
		env = append(env, &aiplatformpb.EnvVar{Name: k, Value: spec.Env[k]})
	}
	return &aiplatformpb.ModelContainerSpec{
		ImageUri:     spec.ImageURI,
		PredictRoute: predictRoute,
		HealthRoute:  healthRoute,
		Env:          env,
		Ports:        []*aiplatformpb.Port{{ContainerPort: spec.Port}},
	}
}

// UploadModel registers the serving container as a model and returns the
// model resource name.
func (e *Endpoints) UploadModel(ctx context.Context, spec EndpointSpec) (string, error) {
	if spec.ImageURI == "" {
		return "", fmt.Errorf("%w: set endpoint.image_uri in %s", ErrNotConfigured, DefaultConfigFile)
	}
	op, err := e.models.UploadModel(ctx, &aiplatformpb.UploadModelRequest{
		Parent: Parent(e.project, e.region),
		Model: &aiplatformpb.Model{
			DisplayName:   spec.DisplayName,
			ContainerSpec: ContainerSpec(spec),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload model: %w", err)
	}
	logr.FromContextOrDiscard(ctx).Info("Waiting for model upload", "operation", op.Name())
	resp, err := op.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("model upload failed: %w", err)
	}
	return resp.GetModel(), nil
}

// Deploy creates an endpoint and deploys modelName to it with all traffic.
// It returns the endpoint resource name.
func (e *Endpoints) Deploy(ctx context.Context, modelName string, spec EndpointSpec, vertex VertexAI) (string, error) {
	log := logr.FromContextOrDiscard(ctx)
	createOp, err := e.endpoints.CreateEndpoint(ctx, &aiplatformpb.CreateEndpointRequest{
		Parent:   Parent(e.project, e.region),
		Endpoint: &aiplatformpb.Endpoint{DisplayName: spec.DisplayName},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create endpoint: %w", err)
	}
	endpoint, err := createOp.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("endpoint creation failed: %w", err)
	}
	log.Info("Created endpoint", "endpoint", endpoint.GetName())

	deployOp, err := e.endpoints.DeployModel(ctx, &aiplatformpb.DeployModelRequest{
		Endpoint: endpoint.GetName(),
		DeployedModel: &aiplatformpb.DeployedModel{
			Model:       modelName,
			DisplayName: spec.DisplayName,
			PredictionResources: &aiplatformpb.DeployedModel_DedicatedResources{
				DedicatedResources: &aiplatformpb.DedicatedResources{
					MachineSpec:     &aiplatformpb.MachineSpec{MachineType: vertex.MachineType},
					MinReplicaCount: vertex.MinReplicaCount,
					MaxReplicaCount: vertex.MaxReplicaCount,
				},
			},
		},
		TrafficSplit: map[string]int32{"0": 100},
	})
	if err != nil {
		return "", fmt.Errorf("failed to deploy model: %w", err)
	}
	log.Info("Waiting for model deployment", "operation", deployOp.Name())
	if _, err := deployOp.Wait(ctx); err != nil {
		return "", fmt.Errorf("model deployment failed: %w", err)
	}
	return endpoint.GetName(), nil
}

// EndpointName returns the full endpoint name for id.
func EndpointName(project, region, id string) string {
	if strings.HasPrefix(id, "projects/") {
		return id
	}
	return fmt.Sprintf("projects/%s/locations/%s/endpoints/%s", project, region, id)
}

// Predict sends one message to a deployed endpoint and returns the first
// prediction's response.
func (e *Endpoints) Predict(ctx context.Context, endpointID, userID, sessionID, message string) (string, error) {
	instance, err := structpb.NewValue(map[string]any{
		"user_id":    userID,
		"session_id": sessionID,
		"message":    message,
	})
	if err != nil {
		return "", err
	}
	resp, err := e.prediction.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  EndpointName(e.project, e.region, endpointID),
		Instances: []*structpb.Value{instance},
	})
	if err != nil {
		return "", fmt.Errorf("prediction failed: %w", err)
	}
	return PredictionText(resp.GetPredictions()), nil
}

// PredictionText extracts the response of the first prediction.
func PredictionText(predictions []*structpb.Value) string {
	if len(predictions) == 0 {
		return agents.NoResponse
	}
	text := predictions[0].GetStructValue().GetFields()["response"].GetStringValue()
	if text == "" {
		return agents.NoResponse
	}
	return text
}
