package analyze_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oranpie/flavent/lang/analyze"
	"github.com/oranpie/flavent/lang/resolver"
	"github.com/oranpie/flavent/lang/token"
)

func TestAnalyzeFreeFunction(t *testing.T) {
	res, err := analyze.Analyze(context.Background(), token.NewFileSet(), t.Name()+".flv",
		[]byte("fn add(a: Int, b: Int) -> Int = a + b\n"),
		"", nil, analyze.Options{Discard: resolver.DefaultDiscardNames()})
	require.NoError(t, err)
	require.NotNil(t, res.HIR)
	require.Len(t, res.HIR.Fns, 1)
}

func TestAnalyzeReportsCheckError(t *testing.T) {
	_, err := analyze.Analyze(context.Background(), token.NewFileSet(), t.Name()+".flv",
		[]byte("fn bad() -> Int = \"oops\"\n"),
		"", nil, analyze.Options{Discard: resolver.DefaultDiscardNames()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "check:")
}

func TestAnalyzeReportsParseError(t *testing.T) {
	_, err := analyze.Analyze(context.Background(), token.NewFileSet(), t.Name()+".flv",
		[]byte("fn (( garbage\n"),
		"", nil, analyze.Options{Discard: resolver.DefaultDiscardNames()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse:")
}

func TestAnalyzeMissingUseIsError(t *testing.T) {
	_, err := analyze.Analyze(context.Background(), token.NewFileSet(), t.Name()+".flv",
		[]byte("use \"nonexistent_module\"\n"),
		t.TempDir(), nil, analyze.Options{Discard: resolver.DefaultDiscardNames()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "use:")
}
