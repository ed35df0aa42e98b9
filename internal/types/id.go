// README: Shared identifier type and the time-ordered ID generator.
package types

import (
	"fmt"
	"sync/atomic"
	"time"
)

type ID string

var idSeq atomic.Uint32

// NewID returns prefix + yyyymmddHHMMSS (UTC) + a 4-digit sequence, e.g.
// B202601021504050007. IDs sort by creation second; the sequence keeps them
// distinct within a process.
func NewID(prefix string, now time.Time) ID {
	n := idSeq.Add(1) % 10000
	return ID(fmt.Sprintf("%s%s%04d", prefix, now.UTC().Format("20060102150405"), n))
}

func (id ID) String() string {
	return string(id)
}
