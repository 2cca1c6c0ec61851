package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// DefaultDeduplicationKeyFunc keys on method, URL, body digest and the
// caller's credentials.
func DefaultDeduplicationKeyFunc(req *http.Request) string {
	h := sha256.New()
	h.Write([]byte(req.Method))
	h.Write([]byte{0})
	if req.URL != nil {
		h.Write([]byte(req.URL.String()))
	}
	h.Write([]byte{0})
	h.Write(requestBody(req))
	h.Write([]byte{0})
	h.Write([]byte(identityDigest(req)))
	return hex.EncodeToString(h.Sum(nil))
}

// DefaultDeduplicationCondition enables de-duplication for safe methods.
func DefaultDeduplicationCondition(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// QuoteDeduplicationCondition also coalesces POSTs. Tax calculations are
// side-effect free, so identical concurrent quotes can share one call.
func QuoteDeduplicationCondition(req *http.Request) bool {
	return req.Method == http.MethodPost || DefaultDeduplicationCondition(req)
}
