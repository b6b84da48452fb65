// Package git provides the local diff operations behind local review mode.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// GetDiff returns the unified diff of the working tree against the merge
// base of baseRef and HEAD. With baseRef "HEAD" this is exactly the
// uncommitted work; with a branch ref it covers the branch commits plus
// uncommitted changes, mirroring what the PR diff would contain.
func GetDiff(ctx context.Context, baseRef, workDir string) (string, error) {
	if baseRef == "" {
		return "", fmt.Errorf("base ref cannot be empty")
	}
	if strings.HasPrefix(baseRef, "-") {
		return "", fmt.Errorf("base ref must not start with -: %q", baseRef)
	}

	base := baseRef
	if mb, err := mergeBase(ctx, baseRef, workDir); err == nil && mb != "" {
		base = mb
	}

	cmd := exec.CommandContext(ctx, "git", "diff", "--no-color", base)
	if workDir != "" {
		cmd.Dir = workDir
	}
	out, err := cmd.Output()
	if err != nil {
		return "", gitError("diff against "+baseRef, err)
	}
	return string(out), nil
}

func mergeBase(ctx context.Context, baseRef, workDir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "merge-base", baseRef, "HEAD")
	if workDir != "" {
		cmd.Dir = workDir
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ResolveBaseBranch picks a default base ref when none is configured: the
// remote HEAD if origin has one, then origin/main, then origin/master, and
// finally plain main.
func ResolveBaseBranch(ctx context.Context, workDir string) string {
	cmd := exec.CommandContext(ctx, "git", "symbolic-ref", "refs/remotes/origin/HEAD")
	if workDir != "" {
		cmd.Dir = workDir
	}
	if out, err := cmd.Output(); err == nil {
		ref := strings.TrimSpace(string(out))
		if name, ok := strings.CutPrefix(ref, "refs/remotes/"); ok && name != "" {
			return name
		}
	}

	for _, candidate := range []string{"origin/main", "origin/master"} {
		if refExists(ctx, candidate, workDir) {
			return candidate
		}
	}
	return "main"
}

func refExists(ctx context.Context, ref, workDir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "--quiet", ref)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.Run() == nil
}

// EnsureRepo verifies that workDir is inside a git repository.
func EnsureRepo(ctx context.Context, workDir string) error {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--git-dir")
	if workDir != "" {
		cmd.Dir = workDir
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("not inside a git repository: %w", err)
	}
	return nil
}

// gitError decorates a git failure with captured stderr when available.
func gitError(op string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			return fmt.Errorf("git %s failed: %s", op, msg)
		}
	}
	return fmt.Errorf("git %s failed: %w", op, err)
}
