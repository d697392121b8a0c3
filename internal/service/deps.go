package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// IDGenerator returns the id of the ticket built from the index-th record of
// a batch. Ids must be unique within one batch.
type IDGenerator interface {
	NewID(index int) string
}

// BatchIDs prefixes the record index with a random batch token.
type BatchIDs struct {
	Batch string
}

func NewBatchIDs() BatchIDs {
	return BatchIDs{Batch: strings.ReplaceAll(uuid.NewString(), "-", "")[:12]}
}

func (b BatchIDs) NewID(index int) string {
	return fmt.Sprintf("csv-%s-%d", b.Batch, index)
}

// SequenceIDs yields "<prefix>-<index>"; deterministic, for tests and replays.
type SequenceIDs struct {
	Prefix string
}

func (s SequenceIDs) NewID(index int) string {
	return fmt.Sprintf("%s-%d", s.Prefix, index)
}
