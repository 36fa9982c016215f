package launcher

func platformOpener() (string, []string) {
	return "open", nil
}
