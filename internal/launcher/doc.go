// Package launcher opens files in the operating system's default
// application: xdg-open on Linux and the BSDs, open on macOS, and the
// FileProtocolHandler of url.dll on Windows.
package launcher
