//go:build linux

package executor

import (
	"fmt"
	"os/exec"
	"syscall"
)

// resourceLimitAddressSpace is the address-space cap (64 MiB) for
// sandboxed utility calls named in spec.md §4.3 point 5. Installation
// commands themselves run uncapped under the configured timeout, so this
// is only ever applied inside the sandbox path.
const resourceLimitAddressSpace = 64 << 20

// applyResourceLimits wires the namespace hardening and RLIMIT_AS cap
// described in spec.md §4.3 points 4-5. disallowNetwork adds --net to the
// unshare invocation, putting the sandboxed process in its own (empty)
// network namespace.
//
// Go's os/exec has no portable way to set a child's RLIMIT_AS without
// racing the calling process's own limits (Setrlimit affects the caller
// until the child execs), so the cap is applied the same way the
// namespace hardening is: by wrapping the argv, here with util-linux's
// prlimit(1), rather than through SysProcAttr.
func applyResourceLimits(cmd *exec.Cmd, disallowNetwork bool) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	// Put the sandboxed process in its own process group so the executor
	// can terminate the whole tree on timeout (spec.md §4.3 "Execution").
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error { return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL) }

	if unsharePath, err := exec.LookPath("unshare"); err == nil {
		unshareFlags := []string{"--pid", "--mount-proc", "--user"}
		if disallowNetwork {
			unshareFlags = append(unshareFlags, "--net")
		}
		args := append(append(unshareFlags, "--"), cmd.Args...)
		cmd.Path = unsharePath
		cmd.Args = append([]string{unsharePath}, args...)
	}

	if prlimitPath, err := exec.LookPath("prlimit"); err == nil {
		args := append([]string{fmt.Sprintf("--as=%d", resourceLimitAddressSpace), "--"}, cmd.Args...)
		cmd.Path = prlimitPath
		cmd.Args = append([]string{prlimitPath}, args...)
	}
}
