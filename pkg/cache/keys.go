// Package cache keeps computed dashboard reports in a two-tier cache: an
// in-process expirable LRU in front of Redis.
//
// Keys are derived from normalized requests only. Two requests that the
// engine resolves to the same dates, plan, feature and page share one
// entry.
//
// Key format version: v1
// Format: {prefix}v1:{sha256(fields joined by \0)}
//
// Changing the field order invalidates every cached report.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/platinummonkey/aiwu-analytics/pkg/analytics"
)

const keyVersion = "v1"

// Key returns the cache key of a normalized request. defaulted marks
// requests whose dates fell back to the trailing window, because their
// reports echo that flag.
func Key(prefix string, req analytics.Request, defaulted bool) string {
	h := sha256.New()
	for _, field := range []string{
		req.DateFrom,
		req.DateTo,
		req.Plan,
		req.Feature,
		strconv.Itoa(req.Page),
		strconv.Itoa(req.PerPage),
		strconv.FormatBool(defaulted),
	} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return prefix + keyVersion + ":" + hex.EncodeToString(h.Sum(nil))
}
