package phase

import "github.com/hopic-ci/hopic/pkg/config"

// accumulator holds the per-variant mutable state spec §4.6 describes:
// settings a metadata-only step applies forward onto the sh steps that
// follow it within the same variant.
type accumulator struct {
	image              string
	hasImage           bool
	dockerInDocker     bool
	volumes            []config.Volume
	volumesFrom        []config.VolumesFromRef
	extraDockerArgs    map[string]string
	credentials        []config.Credential
	mandatoryArtifacts []config.ArtifactSpec
	optionalArtifacts  []config.ArtifactSpec
	mandatoryJUnit     []config.ArtifactSpec
	worktreeCommits    map[string]string // subdir -> declared changed-files glob owner step
}

func newAccumulator(globalVolumes []config.Volume, globalImage string, hasGlobalImage bool) *accumulator {
	a := &accumulator{
		extraDockerArgs: map[string]string{},
		worktreeCommits: map[string]string{},
	}
	a.volumes = append(a.volumes, globalVolumes...)
	if hasGlobalImage {
		a.image = globalImage
		a.hasImage = true
	}
	return a
}

// apply folds a step's own settings into the accumulator, per spec
// §4.6 point 3: accumulate artifact patterns, record worktree
// declarations, merge extra-docker-args, update the image override and
// docker-in-docker flag.
func (a *accumulator) apply(step config.Step) {
	if step.HasImage {
		a.image = step.Image
		a.hasImage = true
	}
	if step.DockerInDocker {
		a.dockerInDocker = true
	}
	a.volumesFrom = append(a.volumesFrom, step.VolumesFrom...)
	for k, v := range step.ExtraDockerArgs {
		a.extraDockerArgs[k] = v
	}
	a.credentials = append(a.credentials, step.WithCredentials...)

	if step.Archive != nil {
		if step.Archive.AllowMissing {
			a.optionalArtifacts = append(a.optionalArtifacts, *step.Archive)
		} else {
			a.mandatoryArtifacts = append(a.mandatoryArtifacts, *step.Archive)
		}
	}
	if step.Fingerprint != nil {
		if step.Fingerprint.AllowMissing {
			a.optionalArtifacts = append(a.optionalArtifacts, *step.Fingerprint)
		} else {
			a.mandatoryArtifacts = append(a.mandatoryArtifacts, *step.Fingerprint)
		}
	}
	if step.JUnit != nil {
		a.mandatoryJUnit = append(a.mandatoryJUnit, *step.JUnit)
	}
	for subdir := range step.Worktrees {
		if _, ok := a.worktreeCommits[subdir]; !ok {
			a.worktreeCommits[subdir] = ""
		}
	}
}

