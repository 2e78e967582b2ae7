package agent

import (
	"context"

	"github.com/LUBTFY/agent-starter-pack/internal/ai"
)

// Delegator hands an entire query to a specialized sub-agent and returns its
// final text. The sub-agent's internal reasoning loop is opaque to the
// caller.
type Delegator interface {
	Delegate(ctx context.Context, query string) (string, error)
}

// DelegateFunc adapts a function to the Delegator interface.
type DelegateFunc func(ctx context.Context, query string) (string, error)

func (f DelegateFunc) Delegate(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// GeneratorDelegator backs a sub-agent with a hosted model generator.
func GeneratorDelegator(gen ai.IGenerator) Delegator {
	return DelegateFunc(func(ctx context.Context, query string) (string, error) {
		return gen.Generate(ctx, query)
	})
}

// AgentTool exposes a sub-agent as a tool of the root agent.
type AgentTool struct {
	name        string
	description string
	delegator   Delegator
}

func NewAgentTool(name, description string, delegator Delegator) *AgentTool {
	return &AgentTool{name: name, description: description, delegator: delegator}
}

func (t *AgentTool) Name() string        { return t.name }
func (t *AgentTool) Description() string { return t.description }

func (t *AgentTool) Parameters() []ParamSpec {
	return []ParamSpec{
		{Name: "query", Type: "string", Description: "The query or task to pass to the specialized agent.", Required: true},
	}
}

func (t *AgentTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}
	return t.delegator.Delegate(ctx, query)
}
