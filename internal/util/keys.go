package util

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// ConfigKey derives a deterministic cache key from request query parameters.
// Parameter order does not matter; {"ws":"1","v":"2"} and {"v":"2","ws":"1"}
// map to the same key. The joined form is hashed so arbitrary parameter
// values cannot produce oversized or separator-colliding keys.
func ConfigKey(prefix string, params map[string]string) string {
	if len(params) == 0 {
		return prefix + ":-"
	}
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	joined := strings.Join(pairs, "&")
	sum := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%s:%x", prefix, sum)[:len(prefix)+1+16] // prefix + ":" + first 16 hex chars
}
