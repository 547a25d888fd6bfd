// Package paths resolves the on-disk layout the deployment core owns,
// replacing the source's ambient process.cwd()/home-directory lookups
// (spec.md §9) with an explicit, caller-constructed record.
package paths

import "path/filepath"

// Paths is the set of base directories the core persists to. Home is its
// only field and every directory derives from it, so the layout root is
// chosen by the caller here rather than through environment variables read
// by the core itself.
type Paths struct {
	Home string
}

// New builds a Paths rooted at home.
func New(home string) Paths {
	return Paths{Home: home}
}

// Root is "<home>/.taptik".
func (p Paths) Root() string { return filepath.Join(p.Home, ".taptik") }

// Backups is "<home>/.taptik/backups".
func (p Paths) Backups() string { return filepath.Join(p.Root(), "backups") }

// PlatformBackups is "<home>/.taptik/backups/<platform>".
func (p Paths) PlatformBackups(platform string) string {
	return filepath.Join(p.Backups(), platform)
}

// Logs is "<home>/.taptik/logs".
func (p Paths) Logs() string { return filepath.Join(p.Root(), "logs") }

// Audit is "<home>/.taptik/audit".
func (p Paths) Audit() string { return filepath.Join(p.Root(), "audit") }

// ReverseConversion is "<home>/.taptik/reverse-conversion".
func (p Paths) ReverseConversion() string { return filepath.Join(p.Root(), "reverse-conversion") }

// Reports is "<home>/.taptik/reports".
func (p Paths) Reports() string { return filepath.Join(p.Root(), "reports") }

// Hooks is "<home>/.taptik/hooks".
func (p Paths) Hooks() string { return filepath.Join(p.Root(), "hooks") }

// LockFile returns the lock file path alongside the protected file, named
// "<file>.lock" per spec.md §6.
func LockFile(protectedPath string) string { return protectedPath + ".lock" }
