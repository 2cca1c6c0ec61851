package transport

import "net/http"

// BearerAuth sets "Authorization: Bearer <token>" on requests that carry no
// Authorization header.
func BearerAuth(token string) Middleware {
	return func(req *http.Request, next RoundTripper) (*http.Response, error) {
		if req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return next.RoundTrip(req)
	}
}

// Header sets a header on every request, replacing any existing value.
func Header(key, value string) Middleware {
	return func(req *http.Request, next RoundTripper) (*http.Response, error) {
		req.Header.Set(key, value)
		return next.RoundTrip(req)
	}
}
