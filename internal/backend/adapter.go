// Package backend implements the uniform contract of spec.md §4.2 across
// the ~13 supported native package managers, plus priority-based default
// selection (spec.md §4.2 "Selection rule").
package backend

import (
	"context"
	"time"

	"github.com/omnipkg/omni/internal/types"
)

// Adapter is the contract every native tool implements, per spec.md §4.2.
// All methods are synchronous from the caller's perspective but internally
// invoke the secure executor and may block.
type Adapter interface {
	Name() types.Backend
	Priority() int // 0..100, tie-break for default backend selection

	IsAvailable(ctx context.Context) bool // fast probe, e.g. `<tool> --version`
	NeedsPrivilege() bool

	Install(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Update(ctx context.Context, name string) error // name == "" means "everything"
	Search(ctx context.Context, query string) ([]string, error)
	ListInstalled(ctx context.Context) ([]string, error)
	GetInfo(ctx context.Context, name string) (string, error)
	GetInstalledVersion(ctx context.Context, name string) (string, bool, error)
}

// Timeouts describes the typical operation budgets a backend declares, per
// spec.md §4.2 ("Backends declare their typical timeouts ... longer for
// source-based systems such as emerge").
type Timeouts struct {
	Install  time.Duration
	Update   time.Duration
	Search   time.Duration
}
