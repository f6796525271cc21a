package encryption

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SignParams returns the hex HMAC-SHA256 of params, keyed by secret.
// Pairs are sorted by key, rendered as key=value and joined with "||". Empty values are skipped.
func SignParams(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strings.Join(pairs, "||")))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyParams checks a signature produced by SignParams.
func VerifyParams(secret string, params map[string]string, signature string) bool {
	expected := SignParams(secret, params)
	return hmac.Equal([]byte(expected), []byte(signature))
}
