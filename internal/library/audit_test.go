package library

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_HealthyLibrary(t *testing.T) {
	ctx := context.Background()
	f := setupLibrary(t, nil)
	for _, c := range []string{"one", "two", "three"} {
		_, err := f.repo.Ingest(ctx, upload(c))
		require.NoError(t, err)
	}

	report, err := f.repo.Verify(ctx, true)

	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, "local", report.Backend)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 3, report.Healthy)
}

func TestVerify_ReportsProblemsWithoutRepairing(t *testing.T) {
	ctx := context.Background()
	f := setupLibrary(t, nil)
	missing, err := f.repo.Ingest(ctx, upload("missing book"))
	require.NoError(t, err)
	truncated, err := f.repo.Ingest(ctx, upload("truncated book"))
	require.NoError(t, err)
	rotted, err := f.repo.Ingest(ctx, upload("bitrot book"))
	require.NoError(t, err)

	require.NoError(t, os.Remove(missing.Location))
	require.NoError(t, os.WriteFile(truncated.Location, []byte("trunc"), 0o644))
	require.NoError(t, os.WriteFile(rotted.Location, []byte("BITROT book"), 0o644))

	shallow, err := f.repo.Verify(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, shallow.Checked)
	assert.Equal(t, 1, shallow.Count(ProblemMissing))
	assert.Equal(t, 1, shallow.Count(ProblemSizeMismatch))
	assert.Equal(t, 0, shallow.Count(ProblemChecksumMismatch))
	assert.Equal(t, 1, shallow.Healthy)

	deep, err := f.repo.Verify(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, deep.Count(ProblemChecksumMismatch))
	assert.Equal(t, 0, deep.Healthy)

	n, err := f.catalog.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "audit never deletes catalog rows")
	assert.FileExists(t, truncated.Location)
}

func TestVerify_Cancelled(t *testing.T) {
	f := setupLibrary(t, nil)
	_, err := f.repo.Ingest(context.Background(), upload("book"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.repo.Verify(ctx, false)

	assert.ErrorIs(t, err, context.Canceled)
}
