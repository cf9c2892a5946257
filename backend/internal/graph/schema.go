package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"loremaster/backend/internal/constants"
)

// SchemaVersion identifies the constraint/index set created by EnsureSchema
const SchemaVersion = "campaign_schema_v1"

// indexedNames are the labels whose name property backs free-text search
var indexedNames = []string{
	constants.LabelWorld,
	constants.LabelCampaign,
	constants.LabelSession,
	constants.LabelCharacter,
	constants.LabelLocation,
	constants.LabelItem,
	constants.LabelPower,
	constants.LabelEvent,
}

// SchemaStatements returns the constraint and index statements, one per label
func SchemaStatements() []string {
	labels := make([]string, 0, len(constants.IDProperties))
	for label := range constants.IDProperties {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	statements := make([]string, 0, len(labels)+len(indexedNames))
	for _, label := range labels {
		prop := constants.IDProperties[label]
		statements = append(statements, fmt.Sprintf(
			"CREATE CONSTRAINT %s_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			prop, label, prop,
		))
	}
	for _, label := range indexedNames {
		statements = append(statements, fmt.Sprintf(
			"CREATE INDEX %s_name IF NOT EXISTS FOR (n:%s) ON (n.name)",
			strings.ToLower(label), label,
		))
	}
	return statements
}

// SchemaApplied reports whether the current schema version was recorded
func SchemaApplied(ctx context.Context, exec Executor) (bool, error) {
	applied := false
	err := exec.ReadTransaction(ctx, func(tx Tx) error {
		records, err := tx.Run(ctx, `
			MATCH (m:Migration {version: $version})
			RETURN m.applied_at AS applied_at
		`, map[string]any{"version": SchemaVersion})
		if err != nil {
			return err
		}
		applied = len(records) > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check schema version: %w", err)
	}
	return applied, nil
}

// EnsureSchema creates constraints and indexes and records the schema
// version. Statements are idempotent, so re-running is safe.
func EnsureSchema(ctx context.Context, exec Executor, log *zap.Logger) error {
	for _, stmt := range SchemaStatements() {
		// schema statements cannot share a transaction with data writes
		if err := exec.WriteTransaction(ctx, func(tx Tx) error {
			_, err := tx.Run(ctx, stmt, nil)
			return err
		}); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", stmt, err)
		}
		log.Debug("Schema statement applied", zap.String("statement", stmt))
	}

	err := exec.WriteTransaction(ctx, func(tx Tx) error {
		_, err := tx.Run(ctx, `
			MERGE (m:Migration {version: $version})
			SET m.applied_at = datetime(),
			    m.description = 'Entity id constraints and name indexes'
		`, map[string]any{"version": SchemaVersion})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mark schema version: %w", err)
	}

	log.Info("Schema ensured", zap.String("version", SchemaVersion))
	return nil
}
