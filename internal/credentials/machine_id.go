package credentials

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const passwordSalt = "lazychart-token-salt-v1"

// deriveFilePassword generates the passphrase protecting the file keyring.
// Stable across restarts, different per machine and user.
func deriveFilePassword() (string, error) {
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	if username == "" {
		username = fmt.Sprintf("uid-%d", os.Getuid())
	}

	hash := sha256.Sum256([]byte(machineID() + username + passwordSalt))
	return base64.StdEncoding.EncodeToString(hash[:]), nil
}

// machineID returns a per-machine identifier, falling back to the hostname
func machineID() string {
	switch runtime.GOOS {
	case "linux":
		for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
			if data, err := os.ReadFile(path); err == nil {
				if id := strings.TrimSpace(string(data)); id != "" {
					return id
				}
			}
		}
	case "darwin":
		out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
		if err == nil {
			for _, line := range strings.Split(string(out), "\n") {
				if !strings.Contains(line, "IOPlatformUUID") {
					continue
				}
				if _, value, ok := strings.Cut(line, "="); ok {
					return strings.Trim(strings.TrimSpace(value), `"`)
				}
			}
		}
	}

	hostname, _ := os.Hostname()
	return hostname
}
