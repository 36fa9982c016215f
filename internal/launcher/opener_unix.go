//go:build !windows && !darwin

package launcher

func platformOpener() (string, []string) {
	return "xdg-open", nil
}
