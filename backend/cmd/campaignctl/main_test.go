package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loremaster/backend/internal/graph"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeSeed(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestSchemaPrint(t *testing.T) {
	out, err := execute(t, "schema", "--print")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(graph.SchemaStatements()))
	assert.Contains(t, out, "CREATE CONSTRAINT world_id_unique IF NOT EXISTS FOR (n:World) REQUIRE n.world_id IS UNIQUE;")
}

func TestSeedRequiresFile(t *testing.T) {
	_, err := execute(t, "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestSeedDryRun(t *testing.T) {
	path := writeSeed(t, `
worlds:
  - name: Forgotten Realms
    campaigns:
      - name: Icewind Dale
        sessions:
          - name: Session 1
        locations:
          - name: Ten Towns
          - name: Bryn Shander
            parent: Ten Towns
`)

	out, err := execute(t, "seed", "--file", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would create 1 worlds, 1 campaigns, 1 sessions, 2 locations, 0 characters.")
}

func TestSeedRejectsInvalidFile(t *testing.T) {
	path := writeSeed(t, `
worlds:
  - name: Forgotten Realms
    campaigns:
      - name: Icewind Dale
        locations:
          - name: Bryn Shander
            parent: Ten Towns
`)

	_, err := execute(t, "seed", "--file", path, "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ten Towns")
}

func TestSeedMissingFile(t *testing.T) {
	_, err := execute(t, "seed", "--file", filepath.Join(t.TempDir(), "absent.yaml"), "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read seed file")
}
