package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopStage(ctx context.Context, parameters map[string]string, prior Outputs) (string, error) {
	return "ok", nil
}

func defs(names ...string) []StageDefinition {
	out := make([]StageDefinition, len(names))
	for i, name := range names {
		out[i] = StageDefinition{Name: name, Run: noopStage}
	}
	return out
}

func TestBuildGraphValidation(t *testing.T) {
	t.Run("valid linear graph", func(t *testing.T) {
		g, err := BuildGraph([]StageDefinition{
			{Name: "ingest", Run: noopStage},
			{Name: "process", DependsOn: []string{"ingest"}, Run: noopStage},
			{Name: "embed-index", DependsOn: []string{"process"}, Run: noopStage},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, g.Len())
		assert.Equal(t, "embed-index", g.Terminal())
	})

	t.Run("no stages", func(t *testing.T) {
		_, err := BuildGraph(nil)
		assert.ErrorIs(t, err, ErrNoStages)
	})

	t.Run("duplicate stage name", func(t *testing.T) {
		_, err := BuildGraph(defs("ingest", "ingest"))
		assert.ErrorIs(t, err, ErrDuplicateStage)
	})

	t.Run("unknown dependency", func(t *testing.T) {
		_, err := BuildGraph([]StageDefinition{
			{Name: "process", DependsOn: []string{"ingest"}, Run: noopStage},
		})
		assert.ErrorIs(t, err, ErrUnknownDependency)
	})

	t.Run("nil stage func", func(t *testing.T) {
		_, err := BuildGraph([]StageDefinition{{Name: "ingest"}})
		assert.ErrorIs(t, err, ErrNilStageFunc)
	})

	t.Run("self reference is a cycle", func(t *testing.T) {
		_, err := BuildGraph([]StageDefinition{
			{Name: "ingest", DependsOn: []string{"ingest"}, Run: noopStage},
		})
		assert.ErrorIs(t, err, ErrCycle)
	})

	t.Run("indirect cycle", func(t *testing.T) {
		_, err := BuildGraph([]StageDefinition{
			{Name: "a", DependsOn: []string{"c"}, Run: noopStage},
			{Name: "b", DependsOn: []string{"a"}, Run: noopStage},
			{Name: "c", DependsOn: []string{"b"}, Run: noopStage},
		})
		require.ErrorIs(t, err, ErrCycle)
		assert.Contains(t, err.Error(), "a")
	})

	t.Run("cycle with valid prefix", func(t *testing.T) {
		_, err := BuildGraph([]StageDefinition{
			{Name: "ingest", Run: noopStage},
			{Name: "x", DependsOn: []string{"ingest", "y"}, Run: noopStage},
			{Name: "y", DependsOn: []string{"x"}, Run: noopStage},
		})
		assert.ErrorIs(t, err, ErrCycle)
	})
}

func TestReadyStages(t *testing.T) {
	// Diamond: ingest -> {extract, summarize} -> synthesize
	g, err := BuildGraph([]StageDefinition{
		{Name: "ingest", Run: noopStage},
		{Name: "extract", DependsOn: []string{"ingest"}, Run: noopStage},
		{Name: "summarize", DependsOn: []string{"ingest"}, Run: noopStage},
		{Name: "synthesize", DependsOn: []string{"extract", "summarize"}, Run: noopStage},
	})
	require.NoError(t, err)

	done := map[string]struct{}{}
	assert.Equal(t, []string{"ingest"}, g.ReadyStages(done))

	done["ingest"] = struct{}{}
	// Declaration order keeps the frontier deterministic
	assert.Equal(t, []string{"extract", "summarize"}, g.ReadyStages(done))

	done["extract"] = struct{}{}
	assert.Equal(t, []string{"summarize"}, g.ReadyStages(done))

	done["summarize"] = struct{}{}
	assert.Equal(t, []string{"synthesize"}, g.ReadyStages(done))

	done["synthesize"] = struct{}{}
	assert.Empty(t, g.ReadyStages(done))
}

func TestTerminalStage(t *testing.T) {
	// Two sinks: report wins because it is declared last
	g, err := BuildGraph([]StageDefinition{
		{Name: "ingest", Run: noopStage},
		{Name: "audit", DependsOn: []string{"ingest"}, Run: noopStage},
		{Name: "report", DependsOn: []string{"ingest"}, Run: noopStage},
	})
	require.NoError(t, err)
	assert.Equal(t, "report", g.Terminal())
}

func TestGraphFingerprint(t *testing.T) {
	build := func(ds []StageDefinition) *Graph {
		g, err := BuildGraph(ds)
		require.NoError(t, err)
		return g
	}

	a := build([]StageDefinition{
		{Name: "ingest", Run: noopStage},
		{Name: "process", DependsOn: []string{"ingest"}, Run: noopStage},
	})
	b := build([]StageDefinition{
		{Name: "ingest", Run: noopStage},
		{Name: "process", DependsOn: []string{"ingest"}, Run: noopStage},
	})
	c := build([]StageDefinition{
		{Name: "ingest", Run: noopStage},
		{Name: "process", Run: noopStage},
	})

	assert.NotEmpty(t, a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestStageLookup(t *testing.T) {
	g, err := BuildGraph(defs("ingest", "process"))
	require.NoError(t, err)

	def, ok := g.Stage("process")
	require.True(t, ok)
	assert.Equal(t, "process", def.Name)

	_, ok = g.Stage("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"ingest", "process"}, g.Stages())
}
