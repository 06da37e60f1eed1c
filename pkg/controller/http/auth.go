package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/serialport/pkg/utils/logging"
)

// SignatureHeader carries the HMAC-SHA256 of the signed request, hex encoded
// with an optional "sha256=" prefix
const SignatureHeader = "X-Serialport-Signature-256"

// SignatureMiddleware rejects requests that are not signed with secret.
//
// The signed payload is the method, a space, the request URI, a newline and
// the raw body. The body is restored for the next handler.
func SignatureMiddleware(secret string, maxBodySize int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.From(r.Context())

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
			if err != nil {
				handleError(w, r, goerr.Wrap(err, "failed to read request body"))
				return
			}
			_ = r.Body.Close()

			signature := r.Header.Get(SignatureHeader)
			if !verifySignature(secret, signedPayload(r, body), signature) {
				logger.Warn("Invalid request signature", "path", r.URL.Path)
				writeError(w, r, goerr.New("invalid signature"), http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// Sign returns the signature header value for a request
func Sign(secret, method, requestURI string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload(method, requestURI, body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func signedPayload(r *http.Request, body []byte) []byte {
	return payload(r.Method, r.URL.RequestURI(), body)
}

func payload(method, requestURI string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(method)
	buf.WriteByte(' ')
	buf.WriteString(requestURI)
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes()
}

// verifySignature verifies the request signature
func verifySignature(secret string, payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
