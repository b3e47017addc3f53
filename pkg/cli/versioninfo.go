package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
	"github.com/hopic-ci/hopic/pkg/version"
)

// versionVars carries the reproducible-build environment entries spec
// §4.6 point 5 folds into every sh step's environment.
type versionVars struct {
	SourceDateEpoch int64
	Version         string
	PureVersion     string
	DebVersion      string
	PublishVersion  string
}

// computeVersionVars derives VERSION/PURE_VERSION/DEBVERSION/
// PUBLISH_VERSION/SOURCE_DATE_EPOCH from HEAD, per spec §4.2's
// GitVersion.to_version and §6's --publishable-version contract.
//
// DEBVERSION is set identical to PURE_VERSION: the spec names it among
// the reproducible-build vars but never defines a Debian-specific
// mangling beyond that, and original_source carries no such rule
// either, so no transformation is applied here — an Open Question
// decision recorded in DESIGN.md.
func computeVersionVars(ctx context.Context, repo *gitrepo.Repo, cfg *config.PipelineConfig, publishable bool) (versionVars, error) {
	epochStr, err := repo.RunGit(ctx, "log", "-1", "--format=%ct", "HEAD")
	if err != nil {
		return versionVars{}, err
	}
	epoch, err := strconv.ParseInt(strings.TrimSpace(epochStr), 10, 64)
	if err != nil {
		return versionVars{}, err
	}

	var v version.Version
	if cfg.Version.File != "" {
		v, err = version.ReadVersionFile(cfg.Version.File)
		if err != nil {
			return versionVars{}, err
		}
	} else {
		described, err := repo.Describe(ctx)
		if err != nil {
			return versionVars{}, err
		}
		gv, ok := version.ParseGitDescribe(described)
		if !ok {
			return versionVars{}, fmt.Errorf("version: could not parse `git describe` output %q", described)
		}
		v, err = gv.ToVersion(time.Unix(epoch, 0).UTC())
		if err != nil {
			return versionVars{}, err
		}
	}

	pure := v.String()

	commitHash, err := repo.RevParse(ctx, "HEAD")
	if err != nil {
		return versionVars{}, err
	}
	shortHash := commitHash
	if len(shortHash) > 12 {
		shortHash = shortHash[:12]
	}

	publish := pure
	if !publishable {
		core := v
		core.Prerelease = append(append([]string{}, core.Prerelease...), "g"+shortHash)
		publish = core.String()
	}

	return versionVars{
		SourceDateEpoch: epoch,
		Version:         pure,
		PureVersion:     pure,
		DebVersion:      pure,
		PublishVersion:  publish,
	}, nil
}
