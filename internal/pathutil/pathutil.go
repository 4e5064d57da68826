package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHomePath replaces a leading "~" with the user's home directory.
func ExpandHomePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~/"))
}

// ResolveStateDir expands dir, falling back to ~/.tgrelay when unset.
func ResolveStateDir(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "~/.tgrelay"
	}
	return filepath.Clean(ExpandHomePath(dir))
}

// ResolveStateChildDir resolves a directory under the state dir. An absolute
// or home-relative name is used as is.
func ResolveStateChildDir(stateDir, name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if strings.HasPrefix(name, "~") || filepath.IsAbs(name) {
		return filepath.Clean(ExpandHomePath(name))
	}
	return filepath.Join(ResolveStateDir(stateDir), name)
}
