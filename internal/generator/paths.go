package generator

import (
	"path"
	"strings"
)

// buildOutputPath maps a site-relative route to the file that serves it.
// Pretty routes become directory indexes ("/about/" -> "about/index.html");
// routes that already name a file ("/feed.xml") are kept as-is.
func buildOutputPath(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		route = "/"
	}
	clean := strings.Trim(route, " \t\r\n/")
	if clean == "" {
		return "index.html"
	}
	if ext := path.Ext(clean); ext != "" && !strings.HasSuffix(route, "/") {
		return clean
	}
	return path.Join(clean, "index.html")
}

// joinOutputPath resolves rel against the output root, refusing traversal
// outside of it.
func joinOutputPath(base, rel string) string {
	rel = strings.TrimSpace(rel)
	rel = strings.TrimPrefix(rel, "/")
	joined := path.Join(base, rel)
	if base != "" && !strings.HasPrefix(joined, path.Clean(base)) {
		return path.Clean(base)
	}
	return joined
}
