// Package resolver maps mesh and include reference strings from
// description documents to loadable filesystem paths. References may be
// bare filenames, relative paths, or carry a URI scheme (file://,
// model://, package://). Resolution is pure path computation plus
// existence checks; no file contents are read here.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnresolved is returned when no candidate path exists. It carries
// the original reference in the wrapping message for diagnostics.
var ErrUnresolved = errors.New("unresolved reference")

// StatFunc is the existence check. Tests substitute a stub; the default
// is os.Stat.
type StatFunc func(string) (os.FileInfo, error)

// Resolver resolves reference strings against a search root and
// per-scheme roots.
type Resolver struct {
	// SearchRoot anchors bare and relative references.
	SearchRoot string
	// SchemeRoots maps a URI scheme (without "://") to the directory
	// its references are relative to. The "file" scheme needs no entry;
	// it strips to a plain path.
	SchemeRoots map[string]string

	Stat StatFunc
}

// New returns a Resolver anchored at searchRoot with no scheme roots.
func New(searchRoot string) *Resolver {
	return &Resolver{
		SearchRoot:  searchRoot,
		SchemeRoots: map[string]string{},
		Stat:        os.Stat,
	}
}

// Resolve maps a reference to an existing filesystem path. Order:
// the reference taken literally (absolute, or relative to SearchRoot),
// then the scheme-stripped remainder against the scheme's root. Fails
// with ErrUnresolved; callers branch on errors.Is.
func (r *Resolver) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrUnresolved)
	}

	stat := r.Stat
	if stat == nil {
		stat = os.Stat
	}

	scheme, rest, hasScheme := splitScheme(ref)

	// file:// is just a path spelled as a URI
	if hasScheme && scheme == "file" {
		if fileExists(stat, rest) {
			return rest, nil
		}
		if candidate := filepath.Join(r.SearchRoot, rest); fileExists(stat, candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnresolved, ref)
	}

	if !hasScheme {
		if filepath.IsAbs(ref) {
			if fileExists(stat, ref) {
				return ref, nil
			}
			return "", fmt.Errorf("%w: %q", ErrUnresolved, ref)
		}
		if candidate := filepath.Join(r.SearchRoot, ref); fileExists(stat, candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnresolved, ref)
	}

	// literal attempt first: a document may use scheme syntax for a
	// path that happens to exist verbatim under the search root
	if candidate := filepath.Join(r.SearchRoot, rest); fileExists(stat, candidate) {
		return candidate, nil
	}

	if root, ok := r.SchemeRoots[scheme]; ok {
		if candidate := filepath.Join(root, rest); fileExists(stat, candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnresolved, ref)
}

func splitScheme(ref string) (scheme, rest string, ok bool) {
	idx := strings.Index(ref, "://")
	if idx <= 0 {
		return "", ref, false
	}
	return ref[:idx], ref[idx+3:], true
}

func fileExists(stat StatFunc, path string) bool {
	info, err := stat(path)
	return err == nil && !info.IsDir()
}
