package corpus

import (
	"net/url"
	"regexp"
)

// productPathRE matches canonical product page paths such as
// /product/42 or /product/42/.
var productPathRE = regexp.MustCompile(`^/product/(\d+)/?$`)

// ExtractProductID returns the numeric product identifier embedded in a
// product page URL, or the empty string for non-product pages and
// unparseable URLs.
func ExtractProductID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	m := productPathRE.FindStringSubmatch(u.Path)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractVariant returns the variant selector from the URL query
// string, or the empty string when no selector is present.
func ExtractVariant(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("variant")
}
