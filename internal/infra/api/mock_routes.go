// File: internal/infra/api/mock_routes.go
package api

import "regexp"

// Mock-mode path rewriting. A pure string transform: the known logical paths
// are redirected to their stand-in implementations under /api/v1/mock/, and
// anything else passes through untouched.

type mockRoute struct {
	pattern *regexp.Regexp
	replace string
}

var mockRoutes = []mockRoute{
	{regexp.MustCompile(`^/api/v1/cars/search`), "/api/v1/mock/cars/search"},
	{regexp.MustCompile(`^/api/v1/negotiations/$`), "/api/v1/mock/negotiations/"},
	{regexp.MustCompile(`^/api/v1/negotiations/([^/]+)/next$`), "/api/v1/mock/negotiations/$1/next"},
	{regexp.MustCompile(`^/api/v1/negotiations/([^/?]+)(\?.*)?$`), "/api/v1/mock/negotiations/$1$2"},
	{regexp.MustCompile(`^/api/v1/evaluations/([^/]+)(/(?:evaluation|answers))?$`), "/api/v1/mock/evaluations/$1$2"},
}

// RewriteMockPath maps a logical path to its mock-backend equivalent. First
// matching rule wins; unknown paths are returned unchanged.
func RewriteMockPath(path string) string {
	for _, r := range mockRoutes {
		if r.pattern.MatchString(path) {
			return r.pattern.ReplaceAllString(path, r.replace)
		}
	}
	return path
}
