package application

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// NameSource hands out unique alphanumeric names for temporary files.
type NameSource interface {
	NewName() string
}

// UUIDNames draws names from random UUIDs with the dashes removed.
type UUIDNames struct{}

// NewName implements NameSource.
func (UUIDNames) NewName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CounterNames hands out zero-padded sequence numbers, starting at 1. It is
// deterministic and safe for concurrent use.
type CounterNames struct {
	n atomic.Uint64
}

// NewName implements NameSource.
func (c *CounterNames) NewName() string {
	return fmt.Sprintf("%09d", c.n.Add(1))
}

// ShortName returns "tmp" followed by at most n characters of a fresh name.
// RNAplot keeps only the first 12 characters of a sequence name, so callers
// naming sequences use n = 9.
func ShortName(src NameSource, n int) string {
	name := src.NewName()
	if len(name) > n {
		name = name[:n]
	}
	return "tmp" + name
}
