package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/LUBTFY/agent-starter-pack/internal/ai"
	"github.com/LUBTFY/agent-starter-pack/internal/vectorindex"
)

// NoResultsMessage is the sentinel returned when the index has nothing for a
// query. Callers rely on the literal text, never change it casually.
const NoResultsMessage = "No relevant documents found in the knowledge base."

// VectorSearchTool embeds the query with the same model used at ingestion and
// looks up the nearest neighbors on the deployed endpoint. Errors propagate
// to the caller: this is an online, latency-sensitive path with no retries.
type VectorSearchTool struct {
	embedder     ai.IEmbedder
	svc          vectorindex.Service
	endpointID   string
	deploymentID string
	topK         int
}

func NewVectorSearchTool(embedder ai.IEmbedder, svc vectorindex.Service, endpointID, deploymentID string, topK int) *VectorSearchTool {
	if topK <= 0 {
		topK = 3
	}
	return &VectorSearchTool{
		embedder:     embedder,
		svc:          svc,
		endpointID:   endpointID,
		deploymentID: deploymentID,
		topK:         topK,
	}
}

func (t *VectorSearchTool) Name() string {
	return "search_documentation"
}

func (t *VectorSearchTool) Description() string {
	return "Searches the knowledge base for documentation relevant to the query."
}

func (t *VectorSearchTool) Parameters() []ParamSpec {
	return []ParamSpec{
		{Name: "query", Type: "string", Description: "The search query to find relevant documents.", Required: true},
	}
}

func (t *VectorSearchTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}
	return t.Search(ctx, query)
}

func (t *VectorSearchTool) Search(ctx context.Context, query string) (string, error) {
	vectors, err := t.embedder.Embed(ctx, []string{query}, ai.TaskTypeQuery)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	sets, err := t.svc.FindNeighbors(ctx, t.endpointID, t.deploymentID, vectors, t.topK, true)
	if err != nil {
		return "", fmt.Errorf("find neighbors: %w", err)
	}
	var results []string
	for _, neighbors := range sets {
		for _, n := range neighbors {
			results = append(results, fmt.Sprintf("Source: %s\nContent: %s", n.Metadata["source"], n.Metadata["text"]))
		}
	}
	if len(results) == 0 {
		return NoResultsMessage, nil
	}
	return strings.Join(results, "\n\n"), nil
}
