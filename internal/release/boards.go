// Package release builds every app and sample of the project for every
// declared board, hardware revision and build type, and collects the
// resulting binaries into a versioned release tree.
package release

import (
	"os"
	"sort"
	"strings"
)

// FindBoardRevisions discovers the hardware revisions of a west board in the
// project's boards directory. Revisions are directories named
// <board>@<revision>; a board with no revisioned directories is its own
// single entry. Boards not present in the directory at all are returned
// unchanged, they may come from Zephyr or the SDK.
func FindBoardRevisions(boardsDir, board string) []string {
	// hw v2 board names carry a slash, the directories on disk do not.
	normalized := strings.ReplaceAll(board, "/", "_")

	entries, err := os.ReadDir(boardsDir)
	if err != nil {
		return []string{board}
	}

	prefix := normalized + "@"
	var revisions []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			revisions = append(revisions, strings.TrimPrefix(entry.Name(), prefix))
		}
	}

	if len(revisions) == 0 {
		return []string{board}
	}

	sort.Strings(revisions)
	boards := make([]string, len(revisions))
	for i, rev := range revisions {
		boards[i] = board + "@" + rev
	}
	return boards
}
