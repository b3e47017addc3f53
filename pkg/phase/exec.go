// Grounded on the background-process-plus-signal-teardown pattern of
// _examples/githubnext-gh-aw/pkg/cli/mcp_inspect.go (cmd.Start +
// goroutine Wait + signal.Notify cleanup), adapted from long-lived MCP
// servers to single bounded step subprocesses with a Docker CID file.
package phase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hopic-ci/hopic/pkg/config"
	"github.com/hopic-ci/hopic/pkg/console"
	"github.com/hopic-ci/hopic/pkg/hopicerr"
)

// executeStep runs one prepared iteration of a step: either directly,
// or wrapped in `docker run` when the accumulator carries an image.
func executeStep(ctx context.Context, opts RunOptions, variantName string, step config.Step, acc *accumulator, env map[string]string, timeout time.Duration) error {
	argv := step.Sh
	if len(argv) == 0 {
		return nil
	}

	var cidFile string
	if acc.hasImage {
		var err error
		argv, cidFile, err = dockerArgv(acc.image, acc, env, argv)
		if err != nil {
			return err
		}
		defer os.Remove(cidFile)
	}

	if opts.Printer != nil {
		opts.Printer.Command(obfuscateArgv(argv, env, acc))
	}

	if opts.DryRun {
		return nil
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Env = envSlice(env)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	secondSignal := false
	caughtSignal := false
	var signum int
	for {
		select {
		case err := <-done:
			timedOut := runCtx.Err() == context.DeadlineExceeded
			if timedOut {
				teardownContainer(cidFile, false)
			}
			return resolveStepOutcome(caughtSignal, signum, timedOut, step, variantName, err)

		case sig := <-sigCh:
			caughtSignal = true
			signum = int(sig.(syscall.Signal))
			teardownContainer(cidFile, secondSignal)
			if !secondSignal && cidFile != "" {
				secondSignal = true
				continue
			}
			return resolveStepOutcome(true, signum, false, step, variantName, nil)
		}
	}
}

// resolveStepOutcome turns the run loop's raw signals (a caught OS
// signal, a timed-out context, or the subprocess's own exit) into the
// error executeStep returns. A timeout is reported first; otherwise a
// caught signal wins over the subprocess's own exit: it reports
// as 128+signum per spec §4.6 regardless of what tearing down the
// container made the child's own exit status look like (e.g. 137 from
// `docker stop`'s eventual SIGKILL) — kept as its own function so that
// property is unit-testable without a real subprocess or signal.
func resolveStepOutcome(caughtSignal bool, signum int, timedOut bool, step config.Step, variantName string, doneErr error) error {
	if timedOut {
		return hopicerr.NewStepTimeoutError("step %q of variant %q exceeded its timeout", step.Description, variantName)
	}
	if caughtSignal {
		return &hopicerr.SignalExit{Signum: signum}
	}
	return classifyExit(doneErr)
}

func classifyExit(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &exitCodeError{code: exitErr.ExitCode()}
	}
	return err
}

// exitCodeError propagates a step subprocess's own exit code directly,
// the same way SignalExit propagates 128+signum rather than a fixed
// taxonomy code.
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return fmt.Sprintf("step exited with status %d", e.code) }
func (e *exitCodeError) ExitCode() int { return e.code }

// teardownContainer stops (first signal) or kills (second signal) the
// container named by the CID file, per spec §4.6 point 7.
func teardownContainer(cidFile string, forceKill bool) {
	if cidFile == "" {
		return
	}
	data, err := os.ReadFile(cidFile)
	if err != nil {
		return
	}
	cid := strings.TrimSpace(string(data))
	if cid == "" {
		return
	}
	sub := "stop"
	if forceKill {
		sub = "kill"
	}
	_ = exec.Command("docker", sub, cid).Run()
}

func obfuscateArgv(argv []string, env map[string]string, acc *accumulator) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = console.Obfuscate(a, env)
	}
	return out
}

// dockerArgv assembles `docker run` per spec §4.6 point 7, returning
// the CID file path so the caller can resolve the container id for
// signal teardown.
func dockerArgv(image string, acc *accumulator, env map[string]string, command []string) ([]string, string, error) {
	cidFile, err := tempCIDFile()
	if err != nil {
		return nil, "", err
	}

	uid := os.Getuid()
	gid := os.Getgid()

	argv := []string{
		"docker", "run", "--rm",
		"--cidfile=" + cidFile,
		"--net=host",
		"--cap-add=SYS_PTRACE",
		fmt.Sprintf("--tmpfs=/home/sandbox:exec,uid=%d,gid=%d", uid, gid),
		fmt.Sprintf("--user=%d:%d", uid, gid),
		"--workdir=/code",
	}
	for k, v := range env {
		argv = append(argv, fmt.Sprintf("--env=%s=%s", k, v))
	}
	if allStreamsAreTerminals() {
		argv = append(argv, "--tty")
	}
	for _, v := range acc.volumes {
		if v.Suppressed {
			continue
		}
		spec := v.Source + ":" + v.Target
		if v.ReadOnly {
			spec += ":ro"
		}
		argv = append(argv, "--volume="+spec)
	}
	for _, vf := range acc.volumesFrom {
		argv = append(argv, "--volumes-from="+vf.Image)
	}
	for k, v := range acc.extraDockerArgs {
		argv = append(argv, "--"+k+"="+v)
	}
	if acc.dockerInDocker {
		argv = append(argv, "--volume=/var/run/docker.sock:/var/run/docker.sock")
		if sockGID, ok := dockerSocketGroupGID(); ok {
			argv = append(argv, "--group-add="+strconv.Itoa(sockGID))
		}
	}

	argv = append(argv, image)
	argv = append(argv, command...)
	return argv, cidFile, nil
}

func tempCIDFile() (string, error) {
	f, err := os.CreateTemp("", "hopic-cid-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return name, nil
}
