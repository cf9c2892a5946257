// Package graphtest provides a scripted in-memory graph.Executor for
// repository tests. Queries are answered by the first registered response
// whose fragment occurs in the query text; unmatched queries return no rows.
package graphtest

import (
	"context"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"loremaster/backend/internal/graph"
)

// Call is one executed statement
type Call struct {
	Query     string
	Params    map[string]any
	Write     bool
	TxID      int
	Committed bool
}

type response struct {
	fragment string
	records  []*neo4j.Record
	err      error
	once     bool
	used     bool
}

// Executor records every statement and replays scripted responses
type Executor struct {
	mu        sync.Mutex
	responses []*response
	calls     []*Call
	nextTx    int
}

func New() *Executor {
	return &Executor{}
}

// On answers every query containing fragment with records
func (e *Executor) On(fragment string, records ...*neo4j.Record) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, &response{fragment: fragment, records: records})
	return e
}

// Once answers the next query containing fragment with records, then stops matching.
// Once responses registered for the same fragment are consumed in order.
func (e *Executor) Once(fragment string, records ...*neo4j.Record) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, &response{fragment: fragment, records: records, once: true})
	return e
}

// Fail makes queries containing fragment return err
func (e *Executor) Fail(fragment string, err error) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses = append(e.responses, &response{fragment: fragment, err: err})
	return e
}

func (e *Executor) ReadTransaction(ctx context.Context, fn func(tx graph.Tx) error) error {
	return e.transaction(ctx, false, fn)
}

func (e *Executor) WriteTransaction(ctx context.Context, fn func(tx graph.Tx) error) error {
	return e.transaction(ctx, true, fn)
}

func (e *Executor) transaction(ctx context.Context, write bool, fn func(tx graph.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	e.nextTx++
	tx := &fakeTx{exec: e, id: e.nextTx, write: write}
	e.mu.Unlock()

	err := fn(tx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		for _, c := range e.calls {
			if c.TxID == tx.id {
				c.Committed = true
			}
		}
	}
	return err
}

type fakeTx struct {
	exec  *Executor
	id    int
	write bool
}

func (t *fakeTx) Run(_ context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	t.exec.mu.Lock()
	defer t.exec.mu.Unlock()

	t.exec.calls = append(t.exec.calls, &Call{Query: query, Params: params, Write: t.write, TxID: t.id})
	for _, r := range t.exec.responses {
		if r.once && r.used {
			continue
		}
		if !strings.Contains(query, r.fragment) {
			continue
		}
		r.used = true
		if r.err != nil {
			return nil, r.err
		}
		return r.records, nil
	}
	return nil, nil
}

// Calls returns every executed statement in order
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, 0, len(e.calls))
	for _, c := range e.calls {
		out = append(out, *c)
	}
	return out
}

// Matching returns the executed statements containing fragment
func (e *Executor) Matching(fragment string) []Call {
	var out []Call
	for _, c := range e.Calls() {
		if strings.Contains(c.Query, fragment) {
			out = append(out, c)
		}
	}
	return out
}

// Executed reports whether any statement containing fragment ran
func (e *Executor) Executed(fragment string) bool {
	return len(e.Matching(fragment)) > 0
}

// CommittedWrites returns statements from write transactions that committed
func (e *Executor) CommittedWrites() []Call {
	var out []Call
	for _, c := range e.Calls() {
		if c.Write && c.Committed {
			out = append(out, c)
		}
	}
	return out
}

// WriteCount returns how many statements ran inside write transactions
func (e *Executor) WriteCount() int {
	n := 0
	for _, c := range e.Calls() {
		if c.Write {
			n++
		}
	}
	return n
}

// Record builds a record from alternating keys and values
func Record(kv ...any) *neo4j.Record {
	rec := &neo4j.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Keys = append(rec.Keys, kv[i].(string))
		rec.Values = append(rec.Values, kv[i+1])
	}
	return rec
}
