package store

import (
	"net/url"

	"github.com/rohmanhakim/offcache/pkg/hashutil"
	"github.com/rohmanhakim/offcache/pkg/urlutil"
)

// EntryKey derives the cache key for a request: the blake3 hash of the
// method and the canonical URL. Canonicalization folds equivalent URL
// spellings onto one key while keeping query strings distinct.
func EntryKey(method string, requestUrl url.URL) string {
	canonical := urlutil.Canonicalize(requestUrl)
	key, err := hashutil.HashBytes([]byte(method+" "+canonical.String()), hashutil.HashAlgoBLAKE3)
	if err != nil {
		// Unreachable with a known algorithm constant; fall back to the
		// unhashed canonical form so a key is always produced.
		return method + " " + canonical.String()
	}
	return key
}
