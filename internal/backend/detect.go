package backend

import (
	"bufio"
	"os"
	"runtime"
	"strings"

	"github.com/omnipkg/omni/internal/types"
)

// DetectDistro returns the ID field of /etc/os-release when present and
// falls back to runtime.GOOS (original_source's distro.rs, folded in per
// SPEC_FULL.md §C.4).
func DetectDistro() string {
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return runtime.GOOS
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "ID=") {
			return strings.Trim(strings.TrimPrefix(line, "ID="), `"`)
		}
	}
	return runtime.GOOS
}

// DefaultOrderFor returns a preferred_order suited to the given distro.
// Nothing in omni calls it: when boxes.preferred_order is empty after
// coercion, config.Load substitutes its own fixed default list.
func DefaultOrderFor(distro string) []types.Backend {
	switch distro {
	case "ubuntu", "debian", "raspbian", "linuxmint", "pop":
		return []types.Backend{types.APT, types.Flatpak, types.Snap, types.Nix}
	case "fedora", "rhel", "centos", "rocky", "almalinux":
		return []types.Backend{types.DNF, types.Flatpak, types.Snap, types.Nix}
	case "arch", "manjaro", "endeavouros":
		return []types.Backend{types.Pacman, types.Flatpak, types.Snap, types.Nix}
	case "opensuse", "opensuse-leap", "opensuse-tumbleweed", "sles":
		return []types.Backend{types.Zypper, types.Flatpak, types.Snap, types.Nix}
	case "gentoo":
		return []types.Backend{types.Emerge, types.Flatpak, types.Nix}
	case "darwin":
		return []types.Backend{types.Brew, types.MAS, types.Nix}
	case "windows":
		return []types.Backend{types.Winget, types.Scoop, types.Chocolatey}
	default:
		return []types.Backend{types.Nix, types.Flatpak, types.AppImage}
	}
}
