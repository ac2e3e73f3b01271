package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature checks a webhook payload's authenticity: it computes an
// HMAC-SHA256 over the exact raw body bytes with secret as the key and
// compares it in constant time against the hex digest in signatureHeader
// (format "sha256=<hex>").
//
// It never fails loudly: any mismatch, malformed header, or missing input is
// simply false, which the handler maps to 403. Verification must run against
// the unparsed bytes before any JSON decoding, so a payload whose
// serialization differs from what was signed is never accepted.
func VerifySignature(secret []byte, body []byte, signatureHeader string) bool {
	if len(secret) == 0 {
		return false
	}

	hexDigest, ok := strings.CutPrefix(signatureHeader, signaturePrefix)
	if !ok {
		return false
	}

	expected, err := hex.DecodeString(hexDigest)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(expected, mac.Sum(nil))
}
