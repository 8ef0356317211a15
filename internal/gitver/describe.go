package gitver

import (
	"context"
	"strings"

	"github.com/embeddedforge/hoist/internal/runner"
)

// Describe runs git describe in dir and returns the resulting version.
//
// The command's exit code is deliberately ignored: when describe cannot run,
// git prints one of the known sentinel lines and exits non-zero, and the
// parser turns those lines into the proper errors.
func Describe(ctx context.Context, r runner.Runner, dir string) (ZephyrSemver, error) {
	out, _ := r.Output(ctx, dir, "git", "describe", "--tags", "--always", "--long", "--dirty=+")

	pt, err := ParseDescribe(strings.TrimSpace(out))
	if err != nil {
		return ZephyrSemver{}, err
	}
	return FromParsedTag(pt)
}
