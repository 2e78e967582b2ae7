package agent

import (
	"context"
	"fmt"
)

// PlanningTool and ReflectionTool are acknowledgment placeholders: the
// orchestrating model treats the tool call itself as the signal to plan or
// evaluate, so the returned string only confirms the step.

type PlanningTool struct{}

func NewPlanningTool() *PlanningTool { return &PlanningTool{} }

func (t *PlanningTool) Name() string { return "planning_tool" }

func (t *PlanningTool) Description() string {
	return "Breaks down a user's request into a logical sequence of steps."
}

func (t *PlanningTool) Parameters() []ParamSpec {
	return []ParamSpec{
		{Name: "query", Type: "string", Description: "The complex task to plan for.", Required: true},
	}
}

func (t *PlanningTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	_ = ctx
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("A plan has been created for the task: %s", query), nil
}

type ReflectionTool struct{}

func NewReflectionTool() *ReflectionTool { return &ReflectionTool{} }

func (t *ReflectionTool) Name() string { return "reflection_tool" }

func (t *ReflectionTool) Description() string {
	return "Evaluates the result of a previous step to decide the next action."
}

func (t *ReflectionTool) Parameters() []ParamSpec {
	return []ParamSpec{
		{Name: "last_result", Type: "string", Description: "The result of the last action executed.", Required: true},
	}
}

func (t *ReflectionTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	_ = ctx
	lastResult, err := stringArg(args, "last_result")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("The agent has evaluated the result: %s", lastResult), nil
}
