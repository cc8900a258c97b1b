package store

import (
	"strconv"
	"time"

	"github.com/pathakanu/careMemo/internal/model"
)

// idGenerator hands out Unix-millisecond ids that strictly increase.
type idGenerator struct {
	now  func() time.Time
	last int64
}

func newIDGenerator(now func() time.Time, existing []model.Reminder) *idGenerator {
	g := &idGenerator{now: now}
	for _, r := range existing {
		if n, err := strconv.ParseInt(r.ID, 10, 64); err == nil && n > g.last {
			g.last = n
		}
	}
	return g
}

func (g *idGenerator) next() string {
	n := g.now().UnixMilli()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return strconv.FormatInt(n, 10)
}
