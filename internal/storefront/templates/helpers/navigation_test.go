package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"finitefield.org/storefront/internal/storefront/httpserver/middleware"
)

func TestNavActive(t *testing.T) {
	t.Parallel()

	var captured *http.Request
	handler := middleware.RequestInfoMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/main?category=books", nil))
	ctx := captured.Context()

	cases := []struct {
		pattern string
		prefix  bool
		want    bool
	}{
		{"/main", false, true},
		{"/main/", false, true},
		{"/main?category=books", false, true},
		{"/main?category=home", false, false},
		{"/modal", true, false},
		{"/", true, false},
		{"", false, false},
	}
	for _, tc := range cases {
		if got := NavActive(ctx, tc.pattern, tc.prefix); got != tc.want {
			t.Errorf("NavActive(%q, %v) = %v, want %v", tc.pattern, tc.prefix, got, tc.want)
		}
	}
}
