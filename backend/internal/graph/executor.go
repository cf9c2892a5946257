package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"loremaster/backend/pkg/logger"

	apperrors "loremaster/backend/pkg/errors"
)

// Tx runs statements inside one transaction
type Tx interface {
	Run(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error)
}

// Executor runs callbacks inside read or write transactions. A callback
// returning an error rolls the transaction back.
type Executor interface {
	ReadTransaction(ctx context.Context, fn func(tx Tx) error) error
	WriteTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Options configures the Neo4j driver
type Options struct {
	URI            string
	User           string
	Password       string
	Database       string
	MaxPoolSize    int
	ConnectTimeout time.Duration
}

// Neo4jExecutor is the Executor backed by a pooled Neo4j driver. Every call
// acquires its own session and closes it on both success and failure paths.
// Transactions are explicit and run the callback exactly once: a failure,
// transient or not, is returned to the caller without a retry.
type Neo4jExecutor struct {
	open     func(ctx context.Context, cfg neo4j.SessionConfig) session
	database string
	closeFn  func(ctx context.Context) error
	verifyFn func(ctx context.Context) error
	logger   *zap.Logger
	tracer   trace.Tracer
}

// session and transaction are the parts of the driver the executor uses
type session interface {
	begin(ctx context.Context) (transaction, error)
	close(ctx context.Context) error
}

type transaction interface {
	Tx
	commit(ctx context.Context) error
	rollback(ctx context.Context) error
	close(ctx context.Context) error
}

// NewNeo4jExecutor wraps an existing driver
func NewNeo4jExecutor(driver neo4j.DriverWithContext, database string) *Neo4jExecutor {
	return &Neo4jExecutor{
		open: func(ctx context.Context, cfg neo4j.SessionConfig) session {
			return &driverSession{session: driver.NewSession(ctx, cfg)}
		},
		database: database,
		closeFn:  driver.Close,
		verifyFn: driver.VerifyConnectivity,
		logger:   logger.Named("graph"),
		tracer:   otel.Tracer("loremaster/graph"),
	}
}

// Connect creates a driver from opts and verifies connectivity
func Connect(ctx context.Context, opts Options) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(
		opts.URI,
		neo4j.BasicAuth(opts.User, opts.Password, ""),
		func(cfg *neo4j.Config) {
			if opts.MaxPoolSize > 0 {
				cfg.MaxConnectionPoolSize = opts.MaxPoolSize
			}
			if opts.ConnectTimeout > 0 {
				cfg.SocketConnectTimeout = opts.ConnectTimeout
			}
		},
	)
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(opts.URI, err)
	}

	verifyCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		verifyCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(opts.URI, err)
	}

	return NewNeo4jExecutor(driver, opts.Database), nil
}

// VerifyConnectivity checks that the server is reachable
func (e *Neo4jExecutor) VerifyConnectivity(ctx context.Context) error {
	return e.verifyFn(ctx)
}

// Close closes the Neo4j driver connection
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.closeFn(ctx)
}

// ReadTransaction runs fn once in a read transaction
func (e *Neo4jExecutor) ReadTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return e.run(ctx, neo4j.AccessModeRead, fn)
}

// WriteTransaction runs fn once in a write transaction
func (e *Neo4jExecutor) WriteTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return e.run(ctx, neo4j.AccessModeWrite, fn)
}

func (e *Neo4jExecutor) run(ctx context.Context, mode neo4j.AccessMode, fn func(tx Tx) error) error {
	spanName := "graph.read"
	if mode == neo4j.AccessModeWrite {
		spanName = "graph.write"
	}
	ctx, span := e.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("db.system", "neo4j"),
		attribute.String("db.name", e.database),
	))
	defer span.End()

	sess := e.open(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: e.database})
	defer sess.close(ctx)

	err := runOnce(ctx, sess, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug("Transaction rolled back", zap.String("span", spanName), zap.Error(err))
		return err
	}
	return nil
}

// runOnce begins a transaction, runs fn and commits. fn returning an error
// rolls the transaction back.
func runOnce(ctx context.Context, sess session, fn func(tx Tx) error) error {
	tx, err := sess.begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.close(ctx)

	if err := fn(tx); err != nil {
		_ = tx.rollback(ctx)
		return err
	}
	if err := tx.commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type driverSession struct {
	session neo4j.SessionWithContext
}

func (s *driverSession) begin(ctx context.Context) (transaction, error) {
	tx, err := s.session.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &driverTx{tx: tx}, nil
}

func (s *driverSession) close(ctx context.Context) error {
	return s.session.Close(ctx)
}

type driverTx struct {
	tx neo4j.ExplicitTransaction
}

func (d *driverTx) Run(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := d.tx.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect records: %w", err)
	}
	return records, nil
}

func (d *driverTx) commit(ctx context.Context) error   { return d.tx.Commit(ctx) }
func (d *driverTx) rollback(ctx context.Context) error { return d.tx.Rollback(ctx) }
func (d *driverTx) close(ctx context.Context) error    { return d.tx.Close(ctx) }
