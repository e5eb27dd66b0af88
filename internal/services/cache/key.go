package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Key joins parts into a stable logical cache key
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// EncodeOptions renders an options map as a stable "k=v" list sorted by
// key, so equal option sets always produce equal cache keys.
func EncodeOptions(options map[string]interface{}) string {
	if len(options) == 0 {
		return ""
	}

	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, options[k]))
	}

	return strings.Join(pairs, ",")
}

// HashText returns a hex digest suitable as a bounded key component for
// arbitrarily large inputs
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
