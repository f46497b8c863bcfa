package wake

import (
	"os"
	"strings"
)

const bootIDPath = "/proc/sys/kernel/random/boot_id"

// BootID identifies the current boot. A clean-shutdown marker only counts when it was
// written under the same boot. Hosts without /proc get a constant, so every start there
// looks like a warm start.
func BootID() string {
	raw, err := os.ReadFile(bootIDPath)
	if err != nil {
		return "static-boot"
	}
	if id := strings.TrimSpace(string(raw)); id != "" {
		return id
	}
	return "static-boot"
}
