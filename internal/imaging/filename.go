package imaging

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// Filename derives an upload filename of the form
// <second-level-domain>-<timestamp>.<ext> from the image source URL,
// falling back to the page host when the source does not parse.
func Filename(imageSrc, pageURL string, now time.Time) string {
	host := hostOf(imageSrc)
	if host == "" {
		host = hostOf(pageURL)
	}
	name := sanitize(secondLevel(host))
	if name == "" {
		name = "image"
	}

	ext := extOf(imageSrc)
	ts := now.UTC().Format("2006-01-02t15-04-05")
	return name + "-" + ts + "." + ext
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return u.Hostname()
}

// secondLevel returns the registrable label: "cdn.images.example.com"
// becomes "example".
func secondLevel(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return parts[len(parts)-2]
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "png"
	}
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")); ext {
	case "jpg", "jpeg", "png", "gif", "webp", "svg", "avif", "bmp":
		return ext
	default:
		return "png"
	}
}
