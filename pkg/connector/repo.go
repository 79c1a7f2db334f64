package connector

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// FindRepoRoot returns the root of the git worktree containing start
func FindRepoRoot(start string) (string, error) {
	repo, err := git.PlainOpenWithOptions(start, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %s: %w", start, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}

	return wt.Filesystem.Root(), nil
}
