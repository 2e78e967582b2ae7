package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultExecTimeout = 15 * time.Second

// CodeExecutionTool runs a snippet through a language interpreter subprocess
// and captures its output. It is a thin wrapper; sandboxing is the deployment
// environment's responsibility.
type CodeExecutionTool struct {
	interpreter string
	timeout     time.Duration
}

func NewCodeExecutionTool() *CodeExecutionTool {
	return &CodeExecutionTool{interpreter: "python3", timeout: defaultExecTimeout}
}

func (t *CodeExecutionTool) Name() string {
	return "code_execution_tool"
}

func (t *CodeExecutionTool) Description() string {
	return "Executes a block of Python code and returns the output or any errors."
}

func (t *CodeExecutionTool) Parameters() []ParamSpec {
	return []ParamSpec{
		{Name: "code", Type: "string", Description: "The Python code to execute.", Required: true},
	}
}

func (t *CodeExecutionTool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	code, err := stringArg(args, "code")
	if err != nil {
		return "", err
	}
	execCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, t.interpreter, "-c", code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	var sb strings.Builder
	if execCtx.Err() == context.DeadlineExceeded {
		fmt.Fprintf(&sb, "Execution timed out after %s.\n", t.timeout)
	} else if runErr != nil {
		fmt.Fprintf(&sb, "Execution failed: %v\n", runErr)
	}
	if out := strings.TrimSpace(stdout.String()); out != "" {
		sb.WriteString("stdout:\n" + out + "\n")
	}
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		sb.WriteString("stderr:\n" + errOut + "\n")
	}
	if sb.Len() == 0 {
		return "Execution completed with no output.", nil
	}
	return strings.TrimSpace(sb.String()), nil
}
