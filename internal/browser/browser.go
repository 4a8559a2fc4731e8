package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Open launches the system browser at the given http(s) URL.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}

	var argv []string
	switch runtime.GOOS {
	case "darwin":
		argv = []string{"open", rawURL}
	case "windows":
		// rundll32 avoids cmd-shell interpretation of the URL
		argv = []string{"rundll32", "url.dll,FileProtocolHandler", rawURL}
	default:
		argv = []string{"xdg-open", rawURL}
	}
	return exec.Command(argv[0], argv[1:]...).Start()
}
