package hopicerr

import "testing"

func TestExitCodes(t *testing.T) {
	cases := []struct {
		err  Coded
		want ExitCode
	}{
		{NewConfigurationError("bad config"), ExitConfiguration},
		{NewVersioningError("bad version"), ExitVersioning},
		{NewMissingCredentialError("missing"), ExitMissingCredential},
		{NewUnknownPhaseError("unknown"), ExitUnknownPhase},
		{NewVersionBumpMismatchError("mismatch"), ExitVersionBumpMismatch},
		{NewCommitAncestorMismatchError("mismatch"), ExitCommitAncestor},
		{NewNotesMismatchError("mismatch"), ExitNotesMismatch},
		{NewMissingFileError("missing"), ExitMissingFile},
		{NewStepTimeoutError("timeout"), ExitStepTimeout},
	}
	for _, c := range cases {
		if c.err.ExitCode() != c.want {
			t.Errorf("%T.ExitCode() = %d, want %d", c.err, c.err.ExitCode(), c.want)
		}
		if c.err.Error() == "" {
			t.Errorf("%T.Error() should not be empty", c.err)
		}
	}
}

func TestSignalExit(t *testing.T) {
	e := &SignalExit{Signum: 15}
	if e.ExitCode() != 143 {
		t.Errorf("ExitCode() = %d, want 143", e.ExitCode())
	}
}
