package phase

import (
	"os"
	"syscall"

	"golang.org/x/term"
)

func allStreamsAreTerminals() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd())) &&
		term.IsTerminal(int(os.Stderr.Fd()))
}

// dockerSocketGroupGID returns the owning group of /var/run/docker.sock
// when it's group-accessible but not world-accessible, per spec §4.6
// point 7's docker-in-docker group-add rule.
func dockerSocketGroupGID() (int, bool) {
	info, err := os.Stat("/var/run/docker.sock")
	if err != nil {
		return 0, false
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	groupReadable := st.Mode&0o060 != 0
	worldReadable := st.Mode&0o006 != 0
	if groupReadable && !worldReadable {
		return int(st.Gid), true
	}
	return 0, false
}
