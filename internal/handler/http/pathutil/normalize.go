// Package pathutil maps request paths onto a bounded set of metric labels.
package pathutil

import "strings"

// Unmatched is the label for paths that no route serves.
const Unmatched = "unmatched"

// staticPaths are served verbatim.
var staticPaths = map[string]struct{}{
	"/":                {},
	"/upload":          {},
	"/api/frequencies": {},
	"/health":          {},
	"/ready":           {},
	"/live":            {},
	"/metrics":         {},
}

// prefixTemplates collapse one trailing path segment into a placeholder.
var prefixTemplates = []struct {
	prefix   string
	template string
}{
	{prefix: "/samples/", template: "/samples/:name"},
	{prefix: "/api/FileProcessing/", template: "/api/FileProcessing/:file"},
}

// NormalizePath returns the metric label for path.
//
//	NormalizePath("/samples/wap.txt")               // "/samples/:name"
//	NormalizePath("/api/FileProcessing/wap.txt")    // "/api/FileProcessing/:file"
//	NormalizePath("/health/")                       // "/health"
//	NormalizePath("/wp-admin.php")                  // "unmatched"
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i != -1 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	if _, ok := staticPaths[path]; ok {
		return path
	}
	for _, p := range prefixTemplates {
		rest, ok := strings.CutPrefix(path, p.prefix)
		if ok && rest != "" && !strings.Contains(rest, "/") {
			return p.template
		}
	}
	return Unmatched
}
