package gitver

import (
	"fmt"
	"strconv"
	"strings"
)

// byteFieldMax is the largest value the Zephyr VERSION file format can carry
// per numeric field. Each of major, minor, patch and tweak is stored in one
// byte of the firmware version record.
const byteFieldMax = 255

// ZephyrSemver is a version in Zephyr's semver-like scheme, built from a
// ParsedTag. The expected tag format is
//
//	vMAJOR.MINOR.PATCH[-EXTRA][+TWEAK]
//
// where only EXTRA may be a non-numeric string. Values are never mutated after
// construction.
type ZephyrSemver struct {
	Major int
	Minor int
	Patch int
	Extra string
	Tweak int
	Hash  string
	Dirty bool
	OnTag bool

	// TweakClamped reports that the tweak exceeded 255 and was clamped.
	// Callers surface this as a warning; it is not an error because commit
	// counts legitimately grow past 255, unlike version numbers.
	TweakClamped bool
}

// FromParsedTag builds a ZephyrSemver from a ParsedTag.
func FromParsedTag(pt ParsedTag) (ZephyrSemver, error) {
	sv := ZephyrSemver{Hash: pt.Hash, Dirty: pt.Dirty, OnTag: pt.OnTag}

	if pt.Tag != "" {
		var err error
		sv.Major, sv.Minor, sv.Patch, sv.Extra, sv.Tweak, err = parseTag(pt.Tag)
		if err != nil {
			return ZephyrSemver{}, err
		}
	}

	for _, f := range []struct {
		name  string
		value int
	}{{"major", sv.Major}, {"minor", sv.Minor}, {"patch", sv.Patch}} {
		if f.value > byteFieldMax {
			return ZephyrSemver{}, fmt.Errorf(
				"invalid tag %q: %s version %d exceeds the VERSION file limit of %d",
				pt.Tag, f.name, f.value, byteFieldMax)
		}
	}

	// An explicit commit count from git describe wins over a tweak parsed
	// from the tag text.
	if pt.CommitsFromTag != nil {
		sv.Tweak = *pt.CommitsFromTag
	}

	if sv.Tweak > byteFieldMax {
		sv.Tweak = byteFieldMax
		sv.TweakClamped = true
	}

	if sv.OnTag && sv.Dirty {
		// A dirty build directly on a tag is indistinguishable from "255
		// commits past the tag" in the one-byte encoding.
		sv.Tweak = byteFieldMax
	}

	return sv, nil
}

// parseTag splits a vMAJOR.MINOR.PATCH[-EXTRA][+TWEAK] tag into its parts.
func parseTag(tag string) (major, minor, patch int, extra string, tweak int, err error) {
	if !strings.HasPrefix(tag, "v") {
		return 0, 0, 0, "", 0, fmt.Errorf("invalid tag format: %q, tag must start with 'v'", tag)
	}
	rest := tag[1:]

	// The tweak rides after the last '+'.
	if i := strings.LastIndex(rest, "+"); i != -1 {
		tweak, err = parseVersionPart(rest[i+1:], tag, "tweak")
		if err != nil {
			return 0, 0, 0, "", 0, err
		}
		rest = rest[:i]
	}

	// Extra may itself contain dashes, so split only on the first one.
	if numeric, after, found := strings.Cut(rest, "-"); found {
		extra = after
		rest = numeric
	}

	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		return 0, 0, 0, "", 0, fmt.Errorf(
			"invalid tag format: %q, expected vMAJOR.MINOR.PATCH[-EXTRA][+TWEAK]", tag)
	}

	if major, err = parseVersionPart(parts[0], tag, "major"); err != nil {
		return 0, 0, 0, "", 0, err
	}
	if minor, err = parseVersionPart(parts[1], tag, "minor"); err != nil {
		return 0, 0, 0, "", 0, err
	}
	if patch, err = parseVersionPart(parts[2], tag, "patch"); err != nil {
		return 0, 0, 0, "", 0, err
	}

	return major, minor, patch, extra, tweak, nil
}

func parseVersionPart(part, tag, name string) (int, error) {
	v, err := strconv.Atoi(part)
	if err != nil {
		return 0, fmt.Errorf("invalid tag format: %q, %s version must be an integer", tag, name)
	}
	return v, nil
}

// String renders the version as vMAJOR.MINOR.PATCH[-EXTRA][-HASH[+]][+TWEAK].
//
// The hash part only appears when a hash is known and the build was not done
// directly on a clean tag; the tweak part only appears when there is no hash
// and the tweak is non-zero.
func (sv ZephyrSemver) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "v%d.%d.%d", sv.Major, sv.Minor, sv.Patch)

	if sv.Extra != "" {
		fmt.Fprintf(&b, "-%s", sv.Extra)
	}

	if sv.Hash == "" {
		// Tag came from the command line.
		if sv.Tweak != 0 {
			fmt.Fprintf(&b, "+%d", sv.Tweak)
		}
		return b.String()
	}

	if sv.Dirty {
		fmt.Fprintf(&b, "-%s+", sv.Hash)
	} else if !sv.OnTag {
		fmt.Fprintf(&b, "-%s", sv.Hash)
	}

	return b.String()
}

// VersionFile renders the version in Zephyr's VERSION file format. The
// EXTRAVERSION line is only present when the extra part is non-empty.
func (sv ZephyrSemver) VersionFile() string {
	lines := []string{
		fmt.Sprintf("VERSION_MAJOR = %d", sv.Major),
		fmt.Sprintf("VERSION_MINOR = %d", sv.Minor),
		fmt.Sprintf("PATCHLEVEL = %d", sv.Patch),
		fmt.Sprintf("VERSION_TWEAK = %d", sv.Tweak),
	}

	if sv.Extra != "" {
		lines = append(lines, fmt.Sprintf("EXTRAVERSION = %s", sv.Extra))
	}

	return strings.Join(lines, "\n")
}
