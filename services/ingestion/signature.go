package ingestion

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	mailgate_errors "github.com/customeros/mailgate/errors"
)

const signatureAlgorithm = "sha256"

// Sign returns the header value for body under secret, in the sha256=<hex> form.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signatureAlgorithm + "=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a sha256=<hex> header against the HMAC of the exact body bytes.
func VerifySignature(secret, header string, body []byte) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return errors.Wrap(mailgate_errors.ErrInvalidSignature, "signature header missing")
	}
	algorithm, digest, found := strings.Cut(header, "=")
	if !found || !strings.EqualFold(strings.TrimSpace(algorithm), signatureAlgorithm) {
		return errors.Wrap(mailgate_errors.ErrInvalidSignature, "unsupported signature format")
	}
	provided, err := hex.DecodeString(strings.TrimSpace(digest))
	if err != nil {
		return errors.Wrap(mailgate_errors.ErrInvalidSignature, "signature is not hex")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return errors.Wrap(mailgate_errors.ErrInvalidSignature, "signature mismatch")
	}
	return nil
}
