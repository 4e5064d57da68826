package outputfmt

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	absoluteURLInTextRE = regexp.MustCompile(`https?://[^\s"']+`)
	// Bot API tokens look like "<bot id>:<secret>".
	botTokenRE = regexp.MustCompile(`\b\d{5,}:[A-Za-z0-9_-]{20,}\b`)
)

// FormatErrorForDisplay makes err safe to hand back to a tool caller: URLs
// lose their host and any bot token is masked.
func FormatErrorForDisplay(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeErrorText(err.Error())
}

func SanitizeErrorText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = absoluteURLInTextRE.ReplaceAllStringFunc(raw, sanitizeURLInText)
	return botTokenRE.ReplaceAllString(raw, "<redacted>")
}

// sanitizeURLInText keeps only the Bot API method of a URL, dropping the
// host and the /bot<token>/ segment.
func sanitizeURLInText(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	segs := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(segs) > 0 && strings.HasPrefix(segs[0], "bot") {
		segs = segs[1:]
	}
	path := "/" + strings.Join(segs, "/")
	if q := u.Query(); len(q) > 0 {
		path += "?" + q.Encode()
	}
	return path
}
