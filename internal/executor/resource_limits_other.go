//go:build !linux

package executor

import "os/exec"

// applyResourceLimits is a no-op placeholder on platforms without
// unshare(2)/prlimit(1) (spec.md §4.3 point 5 notes these limits apply
// "where the OS supports them").
func applyResourceLimits(cmd *exec.Cmd, disallowNetwork bool) {}
