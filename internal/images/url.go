package images

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// DefaultBaseURL is the image host relative references resolve against.
const DefaultBaseURL = "https://www.channelsseller.site"

// DefaultProviderURL hosts canonical gift artwork keyed by short name.
const DefaultProviderURL = "https://giftcharts.com/gifts"

// NormalizeURL turns an image reference into the absolute URL used as its cache key.
// Empty references stay empty.
func NormalizeURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	base = strings.TrimRight(base, "/")
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "data:"):
		return ref
	case strings.HasPrefix(ref, base):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return base + ref
	}

	if u, err := url.Parse(ref); err == nil && u.Host != "" {
		if u.Hostname() == "localhost" || u.Hostname() == "127.0.0.1" {
			return base + pathAndQuery(u)
		}
		if u.Scheme == "http" && sameHost(base, u.Host) {
			return base + pathAndQuery(u)
		}
		u.Fragment = ""
		return u.String()
	}

	return base + "/api/image/" + url.PathEscape(ref)
}

// Alternates lists fallback URLs for a key in the order they are tried:
// protocol swap, canonical image path, then the provider's artwork path.
// The key itself is never included.
func Alternates(key, name, base, provider string) []string {
	var out []string
	add := func(u string) {
		if u == "" || u == key {
			return
		}
		for _, v := range out {
			if v == u {
				return
			}
		}
		out = append(out, u)
	}

	switch {
	case strings.HasPrefix(key, "https://"):
		add("http://" + strings.TrimPrefix(key, "https://"))
	case strings.HasPrefix(key, "http://"):
		add("https://" + strings.TrimPrefix(key, "http://"))
	}

	if short := ShortName(name); short != "" {
		add(strings.TrimRight(base, "/") + "/api/image/" + short)
		if provider != "" {
			add(strings.TrimRight(provider, "/") + "/" + short + ".webp")
		}
	}
	return out
}

// ShortName derives the provider's artwork slug from a gift name:
// compatibility-decomposed, marker and annotations removed, letters and
// digits only, lower case. "Durov's Cap" becomes "durovscap".
func ShortName(name string) string {
	name = strings.TrimPrefix(name, model.RegularMarker)
	name = strings.TrimPrefix(name, model.RegularPrefix)

	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func pathAndQuery(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

func sameHost(base, host string) bool {
	b, err := url.Parse(base)
	return err == nil && strings.EqualFold(b.Host, host)
}
