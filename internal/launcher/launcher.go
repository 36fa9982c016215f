package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"file-dashboard/internal/logging"
	"file-dashboard/internal/metrics"
)

// ErrUnavailable is returned when the platform opener is not installed.
var ErrUnavailable = errors.New("no default application launcher available")

// Launcher opens a file in the desktop's default application.
type Launcher interface {
	Launch(ctx context.Context, path string) error
}

// Command launches files by running an opener program with the file path
// appended to Args.
type Command struct {
	Name string
	Args []string

	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

// Default returns the opener for the current platform.
func Default() *Command {
	name, args := platformOpener()
	return &Command{Name: name, Args: args}
}

// Launch starts the opener for path without waiting for the application to
// exit. The opener is not tied to ctx so closing the request does not kill
// the application it spawned.
func (c *Command) Launch(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lookPath := c.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	bin, err := lookPath(c.Name)
	if err != nil {
		metrics.LaunchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, c.Name, err)
	}

	args := append(append([]string{}, c.Args...), path)
	cmd := exec.Command(bin, args...) //nolint:gosec // G204 - opener is fixed per platform and path is contained by the caller

	start := c.start
	if start == nil {
		start = startDetached
	}
	if err := start(cmd); err != nil {
		metrics.LaunchesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to launch %s: %w", c.Name, err)
	}

	metrics.LaunchesTotal.WithLabelValues("success").Inc()
	logging.Debug("Launched %s %v", c.Name, args)
	return nil
}

// startDetached starts cmd and reaps it in the background.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logging.Warn("Opener %s exited with error: %v", cmd.Path, err)
		}
	}()
	return nil
}
