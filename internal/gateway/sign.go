package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign computes HMAC-SHA256 signature over params sorted by key,
// joined as k=v pairs with '&'
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))

	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySign reports whether sign is valid signature of params
func VerifySign(params map[string]string, secret, sign string) bool {
	return hmac.Equal([]byte(Sign(params, secret)), []byte(sign))
}
