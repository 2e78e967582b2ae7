package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LUBTFY/agent-starter-pack/internal/config"
)

const customSearchEndpoint = "https://www.googleapis.com/customsearch/v1"

// WebSearchTool grounds the agent with live web results via the Custom Search
// JSON API.
type WebSearchTool struct {
	apiKey   string
	engineID string
	client   *http.Client
}

func NewWebSearchTool(cfg config.WebSearchConfig) *WebSearchTool {
	return &WebSearchTool{
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *WebSearchTool) Name() string {
	return "google_search"
}

func (t *WebSearchTool) Description() string {
	return "A tool for searching the web for information."
}

func (t *WebSearchTool) Parameters() []ParamSpec {
	return []ParamSpec{
		{Name: "queries", Type: "list[string]", Description: "A list of queries to search for.", Required: true},
	}
}

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (t *WebSearchTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	queries, err := queriesArg(args)
	if err != nil {
		return "", err
	}
	var blocks []string
	for _, query := range queries {
		resp, err := t.search(ctx, query)
		if err != nil {
			return "", err
		}
		for _, item := range resp.Items {
			blocks = append(blocks, fmt.Sprintf("Source: %s\nURL: %s\nSnippet: %s", item.Title, item.Link, item.Snippet))
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func (t *WebSearchTool) search(ctx context.Context, query string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("cx", t.engineID)
	params.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, customSearchEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("web search failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// queriesArg accepts either a list of strings or a single string.
func queriesArg(args map[string]interface{}) ([]string, error) {
	value, ok := args["queries"]
	if !ok {
		return nil, fmt.Errorf("missing required argument: queries")
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("queries must not be empty")
		}
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		queries := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok || str == "" {
				return nil, fmt.Errorf("queries must be a list of non-empty strings")
			}
			queries = append(queries, str)
		}
		if len(queries) == 0 {
			return nil, fmt.Errorf("queries must not be empty")
		}
		return queries, nil
	default:
		return nil, fmt.Errorf("queries must be a list of strings")
	}
}
