package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// restService talks to a matching-engine style HTTP service. Index creation
// and deployment are asynchronous on the wire; this client polls the resource
// state until it reaches READY/DEPLOYED, so callers see them as blocking.
type restConfig struct {
	BaseURL             string `json:"base_url"`
	APIKey              string `json:"api_key"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
}

type restService struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	pollInterval time.Duration
}

func init() {
	Register("rest", createRestService)
}

func createRestService(args interface{}) (Service, error) {
	cfg := &restConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vector_index base_url is required")
	}
	interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &restService{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		client:       &http.Client{Timeout: 60 * time.Second},
		pollInterval: interval,
	}, nil
}

type restIndex struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	State       string   `json:"state"`
	DeployedTo  []string `json:"deployed_to"`
}

type restEndpoint struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type restDeployment struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type restMetadataString struct {
	Name        string `json:"name"`
	StringValue string `json:"string_value"`
}

type restNeighbor struct {
	Distance float64 `json:"distance"`
	Metadata struct {
		Strings []restMetadataString `json:"strings"`
	} `json:"metadata"`
}

func (s *restService) do(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("index service %s %s failed: %s: %s", method, path, resp.Status, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *restService) ListIndexes(ctx context.Context) ([]Index, error) {
	var out struct {
		Indexes []restIndex `json:"indexes"`
	}
	if err := s.do(ctx, http.MethodGet, "/v1/indexes", nil, &out); err != nil {
		return nil, err
	}
	result := make([]Index, 0, len(out.Indexes))
	for _, idx := range out.Indexes {
		result = append(result, Index{ID: idx.ID, DisplayName: idx.DisplayName, DeployedTo: idx.DeployedTo})
	}
	return result, nil
}

func (s *restService) CreateIndex(ctx context.Context, req CreateIndexRequest) (Index, error) {
	payload := map[string]interface{}{
		"display_name":          req.DisplayName,
		"source_uri":            req.SourceURI,
		"dimensions":            req.Dimensions,
		"approximate_neighbors": req.ApproximateNeighbors,
		"distance_metric":       req.DistanceMetric,
	}
	var created restIndex
	if err := s.do(ctx, http.MethodPost, "/v1/indexes", payload, &created); err != nil {
		return Index{}, err
	}
	logutil.GetLogger(ctx).Info("index creation submitted, waiting for build",
		zap.String("index_id", created.ID), zap.String("display_name", req.DisplayName))
	if err := s.waitIndexReady(ctx, created.ID); err != nil {
		return Index{}, err
	}
	return Index{ID: created.ID, DisplayName: created.DisplayName}, nil
}

func (s *restService) waitIndexReady(ctx context.Context, indexID string) error {
	for {
		var idx restIndex
		if err := s.do(ctx, http.MethodGet, "/v1/indexes/"+indexID, nil, &idx); err != nil {
			return err
		}
		switch idx.State {
		case "READY":
			return nil
		case "FAILED":
			return fmt.Errorf("index %s build failed", indexID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

func (s *restService) ListEndpoints(ctx context.Context) ([]Endpoint, error) {
	var out struct {
		Endpoints []restEndpoint `json:"endpoints"`
	}
	if err := s.do(ctx, http.MethodGet, "/v1/endpoints", nil, &out); err != nil {
		return nil, err
	}
	result := make([]Endpoint, 0, len(out.Endpoints))
	for _, ep := range out.Endpoints {
		result = append(result, Endpoint{ID: ep.ID, DisplayName: ep.DisplayName})
	}
	return result, nil
}

func (s *restService) CreateEndpoint(ctx context.Context, displayName string, public bool) (Endpoint, error) {
	payload := map[string]interface{}{
		"display_name": displayName,
		"public":       public,
	}
	var created restEndpoint
	if err := s.do(ctx, http.MethodPost, "/v1/endpoints", payload, &created); err != nil {
		return Endpoint{}, err
	}
	return Endpoint{ID: created.ID, DisplayName: created.DisplayName}, nil
}

func (s *restService) Deploy(ctx context.Context, req DeployRequest) error {
	payload := map[string]interface{}{
		"index_id":      req.IndexID,
		"deployment_id": req.DeploymentID,
		"machine_type":  req.MachineType,
		"min_replicas":  req.MinReplicas,
		"max_replicas":  req.MaxReplicas,
	}
	path := "/v1/endpoints/" + req.EndpointID + "/deployments"
	if err := s.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("deployment submitted, waiting for completion",
		zap.String("endpoint_id", req.EndpointID), zap.String("deployment_id", req.DeploymentID))
	return s.waitDeployed(ctx, req.EndpointID, req.DeploymentID)
}

func (s *restService) waitDeployed(ctx context.Context, endpointID, deploymentID string) error {
	path := "/v1/endpoints/" + endpointID + "/deployments/" + deploymentID
	for {
		var dep restDeployment
		if err := s.do(ctx, http.MethodGet, path, nil, &dep); err != nil {
			return err
		}
		switch dep.State {
		case "DEPLOYED":
			return nil
		case "FAILED":
			return fmt.Errorf("deployment %s failed", deploymentID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

func (s *restService) FindNeighbors(ctx context.Context, endpointID, deploymentID string, vectors [][]float32, k int, returnMetadata bool) ([][]Neighbor, error) {
	queries := make([]map[string]interface{}, 0, len(vectors))
	for _, vec := range vectors {
		queries = append(queries, map[string]interface{}{
			"vector":         vec,
			"neighbor_count": k,
		})
	}
	payload := map[string]interface{}{
		"deployment_id":   deploymentID,
		"queries":         queries,
		"return_metadata": returnMetadata,
	}
	var out struct {
		Results []struct {
			Neighbors []restNeighbor `json:"neighbors"`
		} `json:"results"`
	}
	path := "/v1/endpoints/" + endpointID + ":findNeighbors"
	if err := s.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	result := make([][]Neighbor, 0, len(out.Results))
	for _, set := range out.Results {
		neighbors := make([]Neighbor, 0, len(set.Neighbors))
		for _, n := range set.Neighbors {
			metadata := make(map[string]string, len(n.Metadata.Strings))
			for _, item := range n.Metadata.Strings {
				metadata[item.Name] = item.StringValue
			}
			neighbors = append(neighbors, Neighbor{Distance: n.Distance, Metadata: metadata})
		}
		result = append(result, neighbors)
	}
	return result, nil
}
