package cache

import (
	"net/url"
	"regexp"
	"strings"
)

// RequestKey builds the cache fingerprint for a request: the upper-cased
// method, a space, the path, and the encoded query when present.
//
//	RequestKey("get", "/caregivers", url.Values{"skill": {"dementia"}, "region": {"north"}})
//	// "GET /caregivers?region=north&skill=dementia"
//
// Query parameters are sorted by key, so equivalent queries share a key.
func RequestKey(method, path string, query url.Values) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(path)
	if q := query.Encode(); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String()
}

// ResourcePattern returns a pattern matching GET keys for path and anything
// nested under it, with or without a query.
//
//	ResourcePattern("/patients/42") // matches "GET /patients/42", "GET /patients/42/matches?x=1"
func ResourcePattern(path string) string {
	return `^GET ` + regexp.QuoteMeta(path) + `(/|\?|$)`
}
