package service

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/target/genjobs/internal/core"
)

// SequenceIDGenerator hands out "1", "2", ... for the lifetime of the process.
type SequenceIDGenerator struct {
	n atomic.Uint64
}

// NextID returns the next id in the sequence.
func (g *SequenceIDGenerator) NextID() string {
	return strconv.FormatUint(g.n.Add(1), 10)
}

// UUIDGenerator issues random UUIDv4 ids, for deployments where several processes share one queue.
type UUIDGenerator struct{}

// NextID returns a new UUID string.
func (UUIDGenerator) NextID() string {
	return uuid.NewString()
}

var (
	_ core.IDGenerator = (*SequenceIDGenerator)(nil)
	_ core.IDGenerator = UUIDGenerator{}
)
