// Package executor is the single gateway every sub-process call must pass
// through (spec.md §4.3 "Secure Executor"). It enforces an allow-listed
// command set, shell-safe argument validation, optional sandboxing and
// privilege escalation, resource limits, retry with backoff, and a circuit
// breaker.
package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/obs"
	"github.com/omnipkg/omni/internal/validate"
)

// allowedCommands is the set of package-manager binaries and small support
// tools the executor will ever spawn (spec.md §4.3 precondition 1).
var allowedCommands = map[string]bool{
	"apt": true, "apt-get": true, "dpkg": true, "dpkg-query": true,
	"dnf": true, "yum": true, "rpm": true,
	"pacman": true,
	"zypper": true,
	"emerge": true, "equery": true,
	"nix": true, "nix-env": true, "nix-channel": true,
	"snap": true,
	"flatpak": true,
	"brew": true,
	"mas": true,
	"winget": true,
	"choco": true,
	"scoop": true,
	// support tools
	"file": true, "gpg": true, "sha256sum": true, "sha512sum": true,
	"sha1sum": true, "md5sum": true, "tar": true, "unzip": true, "gunzip": true,
}

// safeFlags is a non-exhaustive allow-list of flags considered safe without
// further scrutiny; unknown flags are still allowed but logged per
// spec.md §4.3 precondition 2.
var safeFlags = map[string]bool{
	"-y": true, "--yes": true, "-q": true, "--quiet": true,
	"-v": true, "--verbose": true, "--version": true,
	"-S": true, "-R": true, "-Q": true, "-Syu": true,
	"install": true, "remove": true, "update": true, "upgrade": true,
	"search": true, "list": true, "info": true, "show": true,
}

// Config is the per-call configuration named in spec.md §4.3.
type Config struct {
	RequiresSudo   bool
	Timeout        time.Duration
	Sandbox        bool
	ValidateOutput bool
	MaxRetries     int
	Env            []string // extra environment beyond the sandbox/inherited baseline
	AllowNetwork   bool      // when false (the default), the sandbox gets its own network namespace
}

// DefaultConfig matches the teacher-idiom-adapted defaults from
// original_source's ExecutionConfig: five-minute timeout, sandboxed,
// output-scanned, up to three retries.
func DefaultConfig() Config {
	return Config{
		Timeout:        5 * time.Minute,
		Sandbox:        true,
		ValidateOutput: true,
		MaxRetries:     3,
	}
}

// Result is the outcome of a successful Run.
type Result struct {
	Stdout      string
	Stderr      string
	ExitCode    int
	Duration    time.Duration
	WasRetried  bool
	Suspicious  []string // substrings flagged by output validation, if any
}

// Executor runs allow-listed commands under the constraints of spec.md §4.3.
// It composes a retrier (exponential backoff with jitter) and a circuit
// breaker per target command, mirroring the teacher's per-call semaphore
// pattern in gps/cmd.go generalized to retry/breaker state.
type Executor struct {
	sudoChecker  SudoChecker
	breakers     *breakerRegistry
	concurrency  chan struct{}
}

// SudoChecker abstracts the privilege probe in spec.md §4.3 precondition 3
// so tests can stub it.
type SudoChecker interface {
	IsRoot() bool
	CanSudoNonInteractive(ctx context.Context) bool
}

// New builds an Executor. maxConcurrent bounds the number of sub-processes
// in flight at once, mirroring gps.CtxWithCmdLimit's semaphore.
func New(sudo SudoChecker, maxConcurrent int) *Executor {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &Executor{
		sudoChecker: sudo,
		breakers:    newBreakerRegistry(),
		concurrency: make(chan struct{}, maxConcurrent),
	}
}

// Run validates and executes command with args under cfg. It is the only
// path by which omni spawns a sub-process.
func (e *Executor) Run(ctx context.Context, command string, args []string, cfg Config) (*Result, error) {
	if !allowedCommands[command] {
		return nil, errs.New(errs.Security, "command is not in the allow-list: "+command).
			WithContext("command", command)
	}
	for _, a := range args {
		if safeFlags[a] {
			continue
		}
		if strings.HasPrefix(a, "-") {
			obs.From(ctx).Debugw("unrecognized flag passed through allow-list", "command", command, "flag", a)
			continue
		}
		if err := validate.ShellSafeToken(a); err != nil {
			return nil, errors.Wrapf(err, "argument %q failed shell-safe validation", a)
		}
	}

	if cfg.RequiresSudo {
		if e.sudoChecker == nil || (!e.sudoChecker.IsRoot() && !e.sudoChecker.CanSudoNonInteractive(ctx)) {
			return nil, errs.New(errs.Permission, "operation requires privilege escalation that is not available").
				WithContext("command", command)
		}
	}

	select {
	case e.concurrency <- struct{}{}:
		defer func() { <-e.concurrency }()
	case <-ctx.Done():
		return nil, errs.Wrap(errs.Timeout, ctx.Err(), "cancelled while waiting for an execution slot")
	}

	breaker := e.breakers.get(command)
	res, err := breaker.Execute(func() (interface{}, error) {
		return e.runWithRetry(ctx, command, args, cfg)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Result), nil
}

func (e *Executor) runWithRetry(ctx context.Context, command string, args []string, cfg Config) (*Result, error) {
	var (
		result     *Result
		lastErr    error
		wasRetried bool
	)
	attempt := func() error {
		r, err := e.runOnce(ctx, command, args, cfg)
		if err != nil {
			lastErr = err
			return err
		}
		result = r
		return nil
	}

	if err := attempt(); err != nil {
		if !errs.Retryable(err) || cfg.MaxRetries <= 0 {
			return nil, err
		}
		bo := newBackoff(ctx, cfg.MaxRetries)
		for {
			d, ok := bo.next()
			if !ok {
				return nil, lastErr
			}
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, errs.Wrap(errs.Timeout, ctx.Err(), "cancelled during retry backoff")
			}
			wasRetried = true
			if err := attempt(); err == nil {
				break
			} else if !errs.Retryable(err) {
				return nil, err
			}
		}
	}
	if result != nil {
		result.WasRetried = wasRetried
	}
	return result, nil
}

func (e *Executor) runOnce(ctx context.Context, command string, args []string, cfg Config) (*Result, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, command, args...)

	var workdir string
	if cfg.Sandbox {
		dir, env, err := newSandbox(cfg.Env)
		if err != nil {
			return nil, errs.Wrap(errs.ResourceExhausted, err, "failed to prepare sandbox")
		}
		defer os.RemoveAll(dir)
		workdir = dir
		cmd.Dir = dir
		cmd.Env = env
		applyResourceLimits(cmd, !cfg.AllowNetwork)
	} else if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	dur := time.Since(start)

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: dur,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if cfg.ValidateOutput {
		res.Suspicious = scanSuspicious(res.Stdout + res.Stderr)
		if len(res.Suspicious) > 0 {
			obs.From(ctx).Warnw("suspicious output from sub-process", "command", command, "matches", res.Suspicious, "workdir", workdir)
		}
	}

	if runErr != nil {
		if runCtx.Err() != nil {
			return nil, errs.Wrap(errs.Timeout, runErr, "command timed out").WithContext("command", command)
		}
		return nil, errs.Wrap(errs.InstallationFailed, runErr, "command failed").
			WithContext("command", command).WithContext("stderr", truncate(res.Stderr, 512))
	}
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}

// suspiciousSubstrings mirrors the validator's attack markers, applied to
// captured command output rather than to input (spec.md §4.3 postcondition).
var suspiciousSubstrings = []string{"rm -rf", "/etc/passwd", "$(", "`"}

func scanSuspicious(output string) []string {
	var found []string
	for _, s := range suspiciousSubstrings {
		if strings.Contains(output, s) {
			found = append(found, s)
		}
	}
	return found
}
