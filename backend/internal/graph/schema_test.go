package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/graph/graphtest"
)

func TestSchemaStatements_CoverEveryLabel(t *testing.T) {
	statements := graph.SchemaStatements()

	assert.Contains(t, statements, "CREATE CONSTRAINT location_id_unique IF NOT EXISTS FOR (n:Location) REQUIRE n.location_id IS UNIQUE")
	assert.Contains(t, statements, "CREATE CONSTRAINT character_power_id_unique IF NOT EXISTS FOR (n:CharacterPower) REQUIRE n.character_power_id IS UNIQUE")
	assert.Contains(t, statements, "CREATE INDEX character_name IF NOT EXISTS FOR (n:Character) ON (n.name)")
}

func TestEnsureSchema_RecordsVersion(t *testing.T) {
	exec := graphtest.New()
	ctx := context.Background()

	require.NoError(t, graph.EnsureSchema(ctx, exec, zap.NewNop()))

	marks := exec.Matching("MERGE (m:Migration")
	require.Len(t, marks, 1)
	assert.Equal(t, graph.SchemaVersion, marks[0].Params["version"])
	assert.Len(t, exec.CommittedWrites(), len(graph.SchemaStatements())+1)
}

func TestSchemaApplied(t *testing.T) {
	exec := graphtest.New()
	ctx := context.Background()

	applied, err := graph.SchemaApplied(ctx, exec)
	require.NoError(t, err)
	assert.False(t, applied)

	exec.On("MATCH (m:Migration", graphtest.Record("applied_at", "2024-01-01T00:00:00Z"))
	applied, err = graph.SchemaApplied(ctx, exec)
	require.NoError(t, err)
	assert.True(t, applied)
}
