package launcher

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"slices"
	"testing"
)

func TestDefaultOpener(t *testing.T) {
	c := Default()

	want := map[string]string{
		"darwin":  "open",
		"windows": "rundll32",
	}[runtime.GOOS]
	if want == "" {
		want = "xdg-open"
	}
	if c.Name != want {
		t.Errorf("Default().Name = %q, want %q", c.Name, want)
	}
}

func TestLaunchPassesPathLast(t *testing.T) {
	var got *exec.Cmd
	c := &Command{
		Name:     "opener",
		Args:     []string{"--flag"},
		lookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		start: func(cmd *exec.Cmd) error {
			got = cmd
			return nil
		},
	}

	if err := c.Launch(context.Background(), "/srv/files/report.pdf"); err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if got == nil {
		t.Fatal("start was not called")
	}

	want := []string{"/usr/bin/opener", "--flag", "/srv/files/report.pdf"}
	if !slices.Equal(got.Args, want) {
		t.Errorf("Args = %v, want %v", got.Args, want)
	}
	// Args must not be aliased between launches.
	if len(c.Args) != 1 {
		t.Errorf("Command.Args mutated: %v", c.Args)
	}
}

func TestLaunchUnavailable(t *testing.T) {
	c := &Command{
		Name:     "missing-opener",
		lookPath: func(string) (string, error) { return "", exec.ErrNotFound },
		start: func(*exec.Cmd) error {
			t.Error("start must not be called when the opener is missing")
			return nil
		},
	}

	if err := c.Launch(context.Background(), "/tmp/x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Launch error = %v, want ErrUnavailable", err)
	}
}

func TestLaunchStartFailure(t *testing.T) {
	startErr := errors.New("permission denied")
	c := &Command{
		Name:     "opener",
		lookPath: func(name string) (string, error) { return name, nil },
		start:    func(*exec.Cmd) error { return startErr },
	}

	if err := c.Launch(context.Background(), "/tmp/x"); !errors.Is(err, startErr) {
		t.Errorf("Launch error = %v, want wrapped start error", err)
	}
}

func TestLaunchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &Command{Name: "opener", lookPath: func(string) (string, error) {
		t.Error("lookPath must not be called for a canceled context")
		return "", nil
	}}
	if err := c.Launch(ctx, "/tmp/x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Launch error = %v, want context.Canceled", err)
	}
}
