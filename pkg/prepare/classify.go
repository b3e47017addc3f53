package prepare

import (
	"context"
	"strings"

	"github.com/hopic-ci/hopic/pkg/classifier"
	"github.com/hopic-ci/hopic/pkg/gitrepo"
)

const commitRecordSep = "\x1e"

// ClassifyCommits lists every commit in base..target and classifies
// each one with c, for feeding into the version-bump state machine's
// BumpInput.SourceCommits. firstParent/noMerges add git log's
// --first-parent/--no-merges; the CLI passes true for both unless a
// sub-mode's override bump profile is in effect.
func ClassifyCommits(ctx context.Context, repo *gitrepo.Repo, c classifier.Classifier, base, target string, firstParent, noMerges, strict bool) ([]classifier.Classified, error) {
	args := []string{"log", "--format=%H%x00%B" + commitRecordSep}
	if firstParent {
		args = append(args, "--first-parent")
	}
	if noMerges {
		args = append(args, "--no-merges")
	}
	args = append(args, base+".."+target)

	out, err := repo.RunGit(ctx, args...)
	if err != nil {
		return nil, err
	}

	var result []classifier.Classified
	for _, rec := range parseCommitLogRecords(out) {
		classified, err := c.Classify(rec.hexsha, rec.body, strict)
		if err != nil {
			return nil, err
		}
		result = append(result, classified)
	}
	return result, nil
}

type commitLogRecord struct {
	hexsha string
	body   string
}

// parseCommitLogRecords splits the output of `git log
// --format=%H%x00%B<sep>` into (hexsha, body) pairs, in log order
// (newest first, same as git's).
func parseCommitLogRecords(out string) []commitLogRecord {
	var records []commitLogRecord
	for _, rec := range strings.Split(out, commitRecordSep) {
		rec = strings.TrimPrefix(rec, "\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		parts := strings.SplitN(rec, "\x00", 2)
		if len(parts) != 2 {
			continue
		}
		records = append(records, commitLogRecord{hexsha: strings.TrimSpace(parts[0]), body: parts[1]})
	}
	return records
}
