package scan

import "strings"

// DecodeProjectDir maps a Claude project directory name back to the path it
// was derived from ("-Users-me-app" -> "/Users/me/app"). The encoding is
// lossy, so hyphens in the original path also come back as separators.
func DecodeProjectDir(name string) string {
	return strings.ReplaceAll(name, "-", "/")
}

// EncodeProjectPath maps a path to the directory name Claude stores its
// sessions under: every character outside [A-Za-z0-9] becomes '-'.
func EncodeProjectPath(p string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, p)
}

// MatchProject reports whether f belongs to a project whose path contains
// filter. Claude directories are also compared in encoded form, which keeps
// hyphenated project names matchable.
func MatchProject(f LogFile, filter string) bool {
	if filter == "" {
		return true
	}
	if strings.Contains(f.Project, filter) {
		return true
	}
	return f.ProjectDir != "" && strings.Contains(f.ProjectDir, EncodeProjectPath(filter))
}
