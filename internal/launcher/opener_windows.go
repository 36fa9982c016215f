package launcher

func platformOpener() (string, []string) {
	return "rundll32", []string{"url.dll,FileProtocolHandler"}
}
