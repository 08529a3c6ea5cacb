package helpers

import (
	"context"
	"strings"

	"finitefield.org/storefront/internal/storefront/httpserver/middleware"
)

// RequestPath returns the current request URL path for template helpers.
func RequestPath(ctx context.Context) string {
	return normalizeRoute(middleware.RequestPathFromContext(ctx))
}

// NavActive reports whether the current request should highlight the menu item.
// A pattern carrying a query (e.g. /main?category=books) matches only when the
// current request carries the same value for every listed key.
func NavActive(ctx context.Context, pattern string, prefix bool) bool {
	targetPath, targetQuery, _ := strings.Cut(pattern, "?")
	current := RequestPath(ctx)
	target := normalizeRoute(targetPath)

	if strings.TrimSpace(targetPath) == "" {
		return false
	}
	if !queryMatches(middleware.RequestQueryFromContext(ctx), targetQuery) {
		return false
	}

	if prefix {
		if target == "/" {
			return current == "/"
		}
		if current == target {
			return true
		}
		return strings.HasPrefix(current, target+"/")
	}

	return current == target
}

func queryMatches(currentRaw, targetRaw string) bool {
	if targetRaw == "" {
		return true
	}
	current := parseQuery(currentRaw)
	for key, want := range parseQuery(targetRaw) {
		if current[key] != want {
			return false
		}
	}
	return true
}

func parseQuery(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		out[key] = value
	}
	return out
}

func normalizeRoute(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
