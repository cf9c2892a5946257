package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"loremaster/backend/internal/constants"
	"loremaster/backend/internal/graph"
	"loremaster/backend/pkg/logger"

	apperrors "loremaster/backend/pkg/errors"
)

// base holds what every repository shares: the executor, a component
// logger, and the id/clock sources used on create.
type base struct {
	exec   graph.Executor
	logger *zap.Logger
	entity string
	paging PageLimits
	now    func() time.Time
	newID  func() string
}

func newBase(exec graph.Executor, entity, component string) base {
	return base{
		exec:   exec,
		logger: logger.Named("repository." + component),
		entity: entity,
		paging: defaultPageLimits(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

func (b *base) read(ctx context.Context, op string, fn func(tx graph.Tx) error) error {
	if err := b.exec.ReadTransaction(ctx, fn); err != nil {
		return b.fail(op, err)
	}
	return nil
}

func (b *base) write(ctx context.Context, op string, fn func(tx graph.Tx) error) error {
	if err := b.exec.WriteTransaction(ctx, fn); err != nil {
		return b.fail(op, err)
	}
	return nil
}

// fail logs the failed operation and returns the error for the caller.
// Domain errors pass through unchanged; store errors are wrapped.
func (b *base) fail(op string, err error) error {
	if apperrors.IsNotFound(err) || apperrors.IsConflict(err) || apperrors.IsValidation(err) {
		b.logger.Warn("Operation rejected",
			zap.String("entity", b.entity),
			zap.String("operation", op),
			zap.Error(err),
		)
		return err
	}
	b.logger.Error("Graph operation failed",
		zap.String("entity", b.entity),
		zap.String("operation", op),
		zap.Error(err),
	)
	return apperrors.NewGraphQueryFailed(op, err)
}

func actorOrSystem(actorID string) string {
	if actorID == "" {
		return constants.SystemActor
	}
	return actorID
}

// single runs query and returns its first record, nil when it matched nothing
func single(ctx context.Context, tx graph.Tx, query string, params map[string]any) (*neo4j.Record, error) {
	records, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// count runs a query returning a single `total` column
func count(ctx context.Context, tx graph.Tx, query string, params map[string]any) (int64, error) {
	record, err := single(ctx, tx, query, params)
	if err != nil {
		return 0, err
	}
	return graph.Int64FromRecord(record, "total"), nil
}

func auditFrom(props map[string]any) (created time.Time, createdBy string, updated *time.Time) {
	return graph.PropTime(props, "created_at"), graph.PropString(props, "created_by"), graph.PropTimePtr(props, "updated_at")
}

// reload re-reads an entity after a write; a vanished entity is a NotFound
func reload[T any](ctx context.Context, find func(context.Context, string) (*T, error), entity, id string) (*T, error) {
	found, err := find(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperrors.NewNotFound(entity, id)
	}
	return found, nil
}

// deleteNode runs guard (dependency checks and cascades) and then
// detach-deletes the node, all in one write transaction. It reports false
// when the node did not exist.
func (b *base) deleteNode(ctx context.Context, op, label, key, id string, guard func(tx graph.Tx) error) (bool, error) {
	deleted := false
	err := b.write(ctx, op, func(tx graph.Tx) error {
		existing, err := single(ctx, tx,
			"MATCH (n:"+label+" {"+key+": $id}) RETURN n."+key+" AS id",
			map[string]any{"id": id})
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if guard != nil {
			if err := guard(tx); err != nil {
				return err
			}
		}
		if _, err := tx.Run(ctx, "MATCH (n:"+label+" {"+key+": $id}) DETACH DELETE n", map[string]any{"id": id}); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if deleted {
		b.logger.Info("Node deleted", zap.String("label", label), zap.String(key, id))
	}
	return deleted, nil
}

// updateProps applies ps to the node and stamps updated_at. A missing node
// is a NotFound.
func (b *base) updateProps(ctx context.Context, tx graph.Tx, label, key, id string, ps propertySet) error {
	record, err := single(ctx, tx, `
		MATCH (n:`+label+` {`+key+`: $id})
		SET n += $props, n.updated_at = $now
		RETURN n.`+key+` AS id
	`, map[string]any{"id": id, "props": map[string]any(ps), "now": b.now()})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewNotFound(label, id)
	}
	return nil
}

// newProps starts the property map of a node being created
func (b *base) newProps(idKey, id, actorID string) propertySet {
	return propertySet{
		idKey:        id,
		"created_at": b.now(),
		"created_by": actorOrSystem(actorID),
	}
}

// createChild creates a node and its edge to an existing parent in one
// statement. A missing parent matches nothing, so no node is created and the
// parent is reported as NotFound.
func (b *base) createChild(ctx context.Context, tx graph.Tx, label string, props propertySet, rel, parentLabel, parentID string) error {
	parentKey := constants.IDProperties[parentLabel]
	query := fmt.Sprintf(`
		MATCH (p:%s {%s: $parent_id})
		CREATE (n:%s $props)
		CREATE (n)-[:%s]->(p)
		RETURN n.%s AS id
	`, parentLabel, parentKey, label, rel, constants.IDProperties[label])

	record, err := single(ctx, tx, query, map[string]any{"parent_id": parentID, "props": props.compact()})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewNotFound(parentLabel, parentID)
	}
	return nil
}

// createNode creates a node with no required parent
func (b *base) createNode(ctx context.Context, tx graph.Tx, label string, props propertySet) error {
	_, err := tx.Run(ctx, "CREATE (n:"+label+" $props)", map[string]any{"props": props.compact()})
	return err
}

// mustExist fails with NotFound unless the node exists
func mustExist(ctx context.Context, tx graph.Tx, label, id string) error {
	key := constants.IDProperties[label]
	record, err := single(ctx, tx,
		fmt.Sprintf("MATCH (n:%s {%s: $id}) RETURN n.%s AS id", label, key, key),
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewNotFound(label, id)
	}
	return nil
}

// createJoin creates a join node owned by one entity and referencing another:
// (owner)-[ownerRel]->(j:joinLabel)-[:REFERENCES]->(target). Both ends must exist.
func (b *base) createJoin(ctx context.Context, tx graph.Tx, ownerLabel, ownerID, ownerRel, joinLabel string, props propertySet, targetLabel, targetID string) error {
	if err := mustExist(ctx, tx, ownerLabel, ownerID); err != nil {
		return err
	}
	if err := mustExist(ctx, tx, targetLabel, targetID); err != nil {
		return err
	}
	query := fmt.Sprintf(`
		MATCH (o:%s {%s: $owner_id})
		MATCH (t:%s {%s: $target_id})
		CREATE (o)-[:%s]->(j:%s $props)-[:%s]->(t)
	`, ownerLabel, constants.IDProperties[ownerLabel],
		targetLabel, constants.IDProperties[targetLabel],
		ownerRel, joinLabel, constants.RelReferences)
	_, err := tx.Run(ctx, query, map[string]any{
		"owner_id":  ownerID,
		"target_id": targetID,
		"props":     props.compact(),
	})
	return err
}

// deleteByID detach-deletes a dependent node (join node, segment) by id and
// reports whether it existed
func (b *base) deleteByID(ctx context.Context, op, joinLabel, joinID string) (bool, error) {
	key := constants.IDProperties[joinLabel]
	var deleted int64
	err := b.write(ctx, op, func(tx graph.Tx) error {
		var err error
		deleted, err = count(ctx, tx, fmt.Sprintf(`
			MATCH (j:%s {%s: $id})
			DETACH DELETE j
			RETURN count(*) AS total
		`, joinLabel, key), map[string]any{"id": joinID})
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}
