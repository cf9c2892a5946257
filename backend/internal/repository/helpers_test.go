package repository

import (
	"context"
	"time"

	"loremaster/backend/internal/graph"
	"loremaster/backend/internal/graph/graphtest"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// stub makes ids and timestamps deterministic. Ids are handed out in order;
// once they run out, the last one repeats.
func stub(b *base, ids ...string) {
	b.now = func() time.Time { return testTime }
	next := 0
	b.newID = func() string {
		if len(ids) == 0 {
			return "id"
		}
		id := ids[min(next, len(ids)-1)]
		next++
		return id
	}
}

// rerunExecutor runs every read callback twice against the same fake, the
// way a driver-level retry would after a failed first attempt
type rerunExecutor struct {
	*graphtest.Executor
}

func (e rerunExecutor) ReadTransaction(ctx context.Context, fn func(tx graph.Tx) error) error {
	if err := e.Executor.ReadTransaction(ctx, fn); err != nil {
		return err
	}
	return e.Executor.ReadTransaction(ctx, fn)
}
