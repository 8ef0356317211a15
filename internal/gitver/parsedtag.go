// Package gitver parses git describe output and version tags into the
// structured form used for artifact naming and Zephyr VERSION files.
package gitver

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel outputs git prints on stderr when describe cannot run at all.
const (
	describeNotARepo  = "fatal: not a git repository (or any of the parent directories): .git"
	describeNoCommits = "fatal: bad revision 'HEAD'"
)

// ParsedTag is the structured result of parsing `git describe --tags --always
// --long --dirty=+` output, or of taking a tag directly from the command line.
//
// Recognized describe shapes:
//
//	5a85363                  no tags in the repo
//	5a85363+                 no tags, repo dirty
//	v1.2.3-0-g98bddf3        HEAD directly on a tag
//	v1.2.3-0-g98bddf3+       HEAD directly on a tag, repo dirty
//	v1.2.3-4-g263ab82        HEAD past a tag
//	v1.2.3-4-g263ab82+       HEAD past a tag, repo dirty
type ParsedTag struct {
	// Tag is empty when the repo has no tags.
	Tag string
	// Hash is empty when the tag was given on the command line.
	Hash string
	// CommitsFromTag is nil when the tag was given on the command line.
	CommitsFromTag *int
	Dirty          bool
	OnTag          bool
}

// ParseDescribe parses git describe output into a ParsedTag.
func ParseDescribe(input string) (ParsedTag, error) {
	switch input {
	case describeNotARepo:
		return ParsedTag{}, fmt.Errorf("not inside a git repository, hoist must run inside one")
	case describeNoCommits:
		return ParsedTag{}, fmt.Errorf("repository has no commits, make a commit before running hoist")
	}

	parts := strings.Split(input, "-")

	if len(parts) == 1 {
		// No tags in the repo, the output is just the commit hash.
		hash, dirty := strings.CutSuffix(parts[0], "+")
		zero := 0
		return ParsedTag{Hash: hash, CommitsFromTag: &zero, Dirty: dirty}, nil
	}

	if len(parts) < 3 {
		return ParsedTag{}, fmt.Errorf("invalid git describe format: %q", input)
	}

	// Tags may themselves contain dashes, so the tag is everything except the
	// last two parts.
	tag := strings.Join(parts[:len(parts)-2], "-")

	commits, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return ParsedTag{}, fmt.Errorf("invalid git describe format: %q", input)
	}

	hash, dirty := strings.CutSuffix(parts[len(parts)-1], "+")
	hash = strings.TrimPrefix(hash, "g")

	return ParsedTag{
		Tag:            tag,
		Hash:           hash,
		CommitsFromTag: &commits,
		Dirty:          dirty,
		OnTag:          commits == 0,
	}, nil
}

// FromTag creates a ParsedTag from a tag given on the command line. The tag is
// assumed to sit on a clean, tagged commit, so there is no hash or commit
// count to carry.
func FromTag(tag string) ParsedTag {
	return ParsedTag{Tag: tag, OnTag: true}
}
