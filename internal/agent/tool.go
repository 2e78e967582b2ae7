// Package agent defines the capability tools the orchestration layer calls
// into. The conversational loop itself lives outside this repository; tools
// here are plain implementations of the Tool interface, held in a Toolbox
// keyed by name.
package agent

import (
	"context"
	"fmt"
	"sort"
)

type ParamSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type Tool interface {
	Name() string
	Description() string
	Parameters() []ParamSpec
	Invoke(ctx context.Context, args map[string]interface{}) (string, error)
}

type Toolbox struct {
	tools map[string]Tool
}

func NewToolbox(tools ...Tool) *Toolbox {
	box := &Toolbox{tools: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		box.Register(tool)
	}
	return box
}

func (b *Toolbox) Register(tool Tool) {
	if tool == nil || tool.Name() == "" {
		return
	}
	b.tools[tool.Name()] = tool
}

func (b *Toolbox) Get(name string) (Tool, error) {
	tool, ok := b.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return tool, nil
}

func (b *Toolbox) List() []Tool {
	out := make([]Tool, 0, len(b.tools))
	for _, tool := range b.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func stringArg(args map[string]interface{}, name string) (string, error) {
	value, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required argument: %s", name)
	}
	str, ok := value.(string)
	if !ok || str == "" {
		return "", fmt.Errorf("argument %s must be a non-empty string", name)
	}
	return str, nil
}
