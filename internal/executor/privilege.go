package executor

import (
	"context"
	"os"
	"os/exec"
)

// OSSudoChecker is the production SudoChecker: it asks the OS whether the
// current process is root, and probes `sudo -n true` for non-interactive
// escalation (spec.md §4.3 precondition 3).
type OSSudoChecker struct{}

func (OSSudoChecker) IsRoot() bool {
	return os.Geteuid() == 0
}

func (OSSudoChecker) CanSudoNonInteractive(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "sudo", "-n", "true")
	return cmd.Run() == nil
}
