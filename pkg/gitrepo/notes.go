package gitrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/hopic-ci/hopic/pkg/hopicerr"
)

// notesRefPrefix is where Hopic records its per-submit signature,
// namespaced per target ref per spec §4.4.
const notesRefPrefix = "refs/notes/hopic/"

// SignatureBlock is the note body written onto a submit commit.
type SignatureBlock struct {
	CommitterVersion string
	RuntimeVersion   string
	Plugins          []string
}

func (s SignatureBlock) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Committed-by: Hopic %s\n", s.CommitterVersion)
	fmt.Fprintf(&b, "Hopic-runtime-version: %s\n", s.RuntimeVersion)
	if len(s.Plugins) > 0 {
		fmt.Fprintf(&b, "Hopic-plugins: %s\n", strings.Join(s.Plugins, ", "))
	}
	return b.String()
}

func notesRef(targetRef string) string {
	return notesRefPrefix + strings.TrimPrefix(targetRef, "refs/heads/")
}

// WriteNote attaches sig to commit under refs/notes/hopic/<targetRef>,
// refusing to overwrite a pre-existing note that doesn't carry the
// expected version line (spec §4.4 NotesMismatch policy).
func (r *Repo) WriteNote(ctx context.Context, targetRef, commit string, sig SignatureBlock) error {
	ref := notesRef(targetRef)

	existing, err := r.run(ctx, "notes", "--ref="+ref, "show", commit)
	if err == nil {
		expected := fmt.Sprintf("Hopic-runtime-version: %s", sig.RuntimeVersion)
		if !strings.Contains(existing, expected) {
			return hopicerr.NewNotesMismatchError(
				"existing note on %s under %s does not carry runtime version %s", commit, ref, sig.RuntimeVersion)
		}
		return nil
	}

	_, err = r.run(ctx, "notes", "--ref="+ref, "add", "-m", sig.String(), commit)
	return err
}

// ReadNote returns the note body attached to commit under
// refs/notes/hopic/<targetRef>, if any.
func (r *Repo) ReadNote(ctx context.Context, targetRef, commit string) (string, bool) {
	out, err := r.run(ctx, "notes", "--ref="+notesRef(targetRef), "show", commit)
	if err != nil {
		return "", false
	}
	return out, true
}
