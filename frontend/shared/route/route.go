// Package route reads chi URL parameters.
package route

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// Param returns the decoded URL parameter name. chi matches on the escaped
// path whenever the request carries one, so its params stay escaped.
func Param(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
