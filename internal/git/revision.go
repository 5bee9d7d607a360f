// Package git supplies version-control metadata for documentation
// freshness tracking. Commands shell out to git; callers inject the
// interface so tests never touch a real repository.
package git

import (
	"os/exec"
	"strings"
)

// RevisionReader reports the repository state a documentation file was
// validated against.
type RevisionReader interface {
	// CurrentRevision returns the full commit id of HEAD, or "unknown"
	// when the path is not a repository or git is unavailable.
	CurrentRevision(projectPath string) string

	// CurrentBranch returns the checked-out branch name. For detached
	// HEAD it returns "detached-{short-hash}", and "unknown" if all git
	// commands fail.
	CurrentBranch(projectPath string) string

	// IsRepository reports whether projectPath is inside a git worktree.
	IsRepository(projectPath string) bool
}

// gitReader is the real implementation using exec.Command.
type gitReader struct{}

// NewRevisionReader returns the default git-backed reader.
func NewRevisionReader() RevisionReader {
	return &gitReader{}
}

func (g *gitReader) CurrentRevision(projectPath string) string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = projectPath
	output, err := cmd.Output()
	if err != nil || len(strings.TrimSpace(string(output))) == 0 {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

func (g *gitReader) CurrentBranch(projectPath string) string {
	cmd := exec.Command("git", "branch", "--show-current")
	cmd.Dir = projectPath
	output, err := cmd.Output()
	if err != nil || len(strings.TrimSpace(string(output))) == 0 {
		// Might be detached HEAD
		cmd = exec.Command("git", "rev-parse", "--short", "HEAD")
		cmd.Dir = projectPath
		output, err = cmd.Output()
		if err != nil {
			return "unknown"
		}
		return "detached-" + strings.TrimSpace(string(output))
	}
	return strings.TrimSpace(string(output))
}

func (g *gitReader) IsRepository(projectPath string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = projectPath
	output, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(output)) == "true"
}
