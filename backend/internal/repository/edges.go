package repository

import (
	"context"
	"fmt"

	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

// edge describes a typed relationship used as a foreign key:
// (from:FromLabel {fromKey})-[:Rel]->(to:ToLabel {toKey}).
// Labels and types come from constants, never from input.
type edge struct {
	fromLabel string
	fromKey   string
	rel       string
	toLabel   string
	toKey     string
}

// link creates the edge. The target must exist; a missing target is a NotFound.
func (e edge) link(ctx context.Context, tx graph.Tx, fromID, toID string) error {
	query := fmt.Sprintf(`
		MATCH (a:%s {%s: $from_id})
		MATCH (b:%s {%s: $to_id})
		CREATE (a)-[:%s]->(b)
		RETURN b.%s AS target
	`, e.fromLabel, e.fromKey, e.toLabel, e.toKey, e.rel, e.toKey)

	record, err := single(ctx, tx, query, map[string]any{"from_id": fromID, "to_id": toID})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewNotFound(e.toLabel, toID)
	}
	return nil
}

// unlink removes every outgoing edge of this type from the node
func (e edge) unlink(ctx context.Context, tx graph.Tx, fromID string) error {
	query := fmt.Sprintf(`
		MATCH (a:%s {%s: $from_id})-[r:%s]->(:%s)
		DELETE r
	`, e.fromLabel, e.fromKey, e.rel, e.toLabel)

	_, err := tx.Run(ctx, query, map[string]any{"from_id": fromID})
	return err
}

// replace applies a foreign-key patch: absent leaves the edge untouched,
// null removes it, a value replaces it.
func (e edge) replace(ctx context.Context, tx graph.Tx, fromID string, target models.Nullable[string]) error {
	if !target.Set {
		return nil
	}
	if err := e.unlink(ctx, tx, fromID); err != nil {
		return err
	}
	if !target.Valid || target.Value == "" {
		return nil
	}
	return e.link(ctx, tx, fromID, target.Value)
}

// linkOptional links when toID is set
func (e edge) linkOptional(ctx context.Context, tx graph.Tx, fromID string, toID *string) error {
	if toID == nil || *toID == "" {
		return nil
	}
	return e.link(ctx, tx, fromID, *toID)
}
