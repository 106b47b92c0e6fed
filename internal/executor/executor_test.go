package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/executor"
)

type fakeSudo struct{ root, canSudo bool }

func (f fakeSudo) IsRoot() bool                                { return f.root }
func (f fakeSudo) CanSudoNonInteractive(ctx context.Context) bool { return f.canSudo }

// Testable Property 8: any command outside the allow-list must fail before
// any sub-process is spawned.
func TestRunRejectsDisallowedCommand(t *testing.T) {
	e := executor.New(fakeSudo{}, 2)
	_, err := e.Run(context.Background(), "rm", []string{"-rf", "/"}, executor.DefaultConfig())
	require.Error(t, err)
	se, ok := errs.As(err, errs.Security)
	require.True(t, ok, "expected a Security-kind error, got %v", err)
	assert.False(t, se.Retryable())
}

func TestRunRejectsUnsafeArguments(t *testing.T) {
	e := executor.New(fakeSudo{}, 2)
	_, err := e.Run(context.Background(), "apt", []string{"install", "pkg; rm -rf /"}, executor.DefaultConfig())
	require.Error(t, err)
}

func TestRunFailsWithoutPrivilegeWhenSudoRequired(t *testing.T) {
	e := executor.New(fakeSudo{root: false, canSudo: false}, 2)
	cfg := executor.DefaultConfig()
	cfg.RequiresSudo = true
	cfg.Sandbox = false
	_, err := e.Run(context.Background(), "apt", []string{"update"}, cfg)
	require.Error(t, err)
	_, ok := errs.As(err, errs.Permission)
	assert.True(t, ok)
}
