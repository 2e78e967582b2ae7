package agent

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
}

func TestCodeExecutionCapturesStdout(t *testing.T) {
	requirePython(t)
	tool := NewCodeExecutionTool()

	got, err := tool.Invoke(context.Background(), map[string]interface{}{"code": `print("hello")`})
	require.NoError(t, err)
	require.Equal(t, "stdout:\nhello", got)
}

func TestCodeExecutionReportsFailure(t *testing.T) {
	requirePython(t)
	tool := NewCodeExecutionTool()

	got, err := tool.Invoke(context.Background(), map[string]interface{}{"code": `raise ValueError("boom")`})
	require.NoError(t, err)
	require.Contains(t, got, "Execution failed")
	require.Contains(t, got, "ValueError: boom")
}

func TestCodeExecutionNoOutput(t *testing.T) {
	requirePython(t)
	tool := NewCodeExecutionTool()

	got, err := tool.Invoke(context.Background(), map[string]interface{}{"code": `x = 1`})
	require.NoError(t, err)
	require.Equal(t, "Execution completed with no output.", got)
}

func TestCodeExecutionTimeout(t *testing.T) {
	requirePython(t)
	tool := NewCodeExecutionTool()
	tool.timeout = 200 * time.Millisecond

	got, err := tool.Invoke(context.Background(), map[string]interface{}{"code": `import time; time.sleep(5)`})
	require.NoError(t, err)
	require.Contains(t, got, "Execution timed out after 200ms.")
}
