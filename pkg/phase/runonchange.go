package phase

import "github.com/hopic-ci/hopic/pkg/config"

// shouldRun implements spec §4.6 point 1's run-on-change evaluation.
// run is false when the step must be skipped; breakVariant is true when
// the rest of the variant's steps are skipped too ("never", "only" and
// "new-version-only" whenever they skip).
func shouldRun(roc config.RunOnChange, ch ChangeContext) (run bool, breakVariant bool) {
	switch roc {
	case config.RunOnChangeNever:
		if ch.HasChange {
			return false, true
		}
		return true, false
	case config.RunOnChangeOnly:
		if ch.HasChange && ch.PublishAllowed {
			return true, false
		}
		return false, true
	case config.RunOnChangeNewVersionOnly:
		if ch.HasChange && ch.PublishAllowed && ch.VersionBumped {
			return true, false
		}
		return false, true
	case config.RunOnChangeAlways, "":
		return true, false
	default:
		return true, false
	}
}
