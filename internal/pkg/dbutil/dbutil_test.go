package dbutil

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM t WHERE a = ? AND b = ?", []interface{}{1, "x"})
	require.Equal(t, "SELECT id FROM t WHERE a = $1 AND b = $2", query)
	require.Equal(t, []interface{}{1, "x"}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(nil))
}
