package room

import (
	"fmt"
	"sync/atomic"
	"time"
)

// IDGenerator hands out monotonically increasing numeric ids. The zero
// value starts at 1; use NewIDGenerator to pick a floor.
type IDGenerator struct {
	next int64
}

func NewIDGenerator(start int64) *IDGenerator {
	return &IDGenerator{next: start - 1}
}

func (g *IDGenerator) Next() int64 {
	return atomic.AddInt64(&g.next, 1)
}

// DisplayID renders a room id with a yyMMdd date prefix, the form used in
// logs and share material.
func DisplayID(id int64) string {
	return fmt.Sprintf("%s%05d", time.Now().Format("060102"), id)
}
