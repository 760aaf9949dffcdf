package frontend

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand returns the command that opens url on goos.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// OpenURL opens url in the user's browser without waiting for it.
func OpenURL(url string) error {
	if url == "" {
		return fmt.Errorf("open url: empty url")
	}
	name, args := browserCommand(runtime.GOOS, url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open url: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
