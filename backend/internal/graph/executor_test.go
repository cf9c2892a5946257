package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type fakeTx struct {
	commitErr  error
	runs       int
	committed  bool
	rolledBack bool
	closed     bool
}

func (t *fakeTx) Run(context.Context, string, map[string]any) ([]*neo4j.Record, error) {
	t.runs++
	return nil, nil
}

func (t *fakeTx) commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) close(context.Context) error {
	t.closed = true
	return nil
}

type fakeSession struct {
	cfg      neo4j.SessionConfig
	tx       *fakeTx
	beginErr error
	begun    int
	closed   bool
}

func (s *fakeSession) begin(context.Context) (transaction, error) {
	s.begun++
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.tx, nil
}

func (s *fakeSession) close(context.Context) error {
	s.closed = true
	return nil
}

func testExecutor(sess *fakeSession) *Neo4jExecutor {
	return &Neo4jExecutor{
		open: func(_ context.Context, cfg neo4j.SessionConfig) session {
			sess.cfg = cfg
			return sess
		},
		database: "campaigns",
		logger:   zap.NewNop(),
		tracer:   otel.Tracer("loremaster/graph"),
	}
}

func TestNeo4jExecutor_WriteCommits(t *testing.T) {
	sess := &fakeSession{tx: &fakeTx{}}
	exec := testExecutor(sess)

	err := exec.WriteTransaction(context.Background(), func(tx Tx) error {
		_, err := tx.Run(context.Background(), "CREATE (n:World)", nil)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, neo4j.AccessModeWrite, sess.cfg.AccessMode)
	assert.Equal(t, "campaigns", sess.cfg.DatabaseName)
	assert.Equal(t, 1, sess.tx.runs)
	assert.True(t, sess.tx.committed)
	assert.True(t, sess.tx.closed)
	assert.True(t, sess.closed)
}

func TestNeo4jExecutor_CallbackErrorRollsBack(t *testing.T) {
	sess := &fakeSession{tx: &fakeTx{}}
	exec := testExecutor(sess)
	boom := errors.New("missing parent")

	err := exec.ReadTransaction(context.Background(), func(Tx) error { return boom })
	require.ErrorIs(t, err, boom)

	assert.Equal(t, neo4j.AccessModeRead, sess.cfg.AccessMode)
	assert.True(t, sess.tx.rolledBack)
	assert.False(t, sess.tx.committed)
	assert.True(t, sess.closed)
}

func TestNeo4jExecutor_CommitFailureIsNotRetried(t *testing.T) {
	transient := errors.New("Neo.TransientError.Transaction.DeadlockDetected")
	sess := &fakeSession{tx: &fakeTx{commitErr: transient}}
	exec := testExecutor(sess)

	calls := 0
	err := exec.WriteTransaction(context.Background(), func(tx Tx) error {
		calls++
		return nil
	})
	require.ErrorIs(t, err, transient)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, sess.begun)
	assert.True(t, sess.closed)
}

func TestNeo4jExecutor_BeginFailureClosesSession(t *testing.T) {
	refused := errors.New("connection refused")
	sess := &fakeSession{beginErr: refused}
	exec := testExecutor(sess)

	called := false
	err := exec.ReadTransaction(context.Background(), func(Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, refused)
	assert.False(t, called)
	assert.True(t, sess.closed)
}
