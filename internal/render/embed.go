package render

import (
	"net/url"
	"strings"
)

// VideoEmbedURL rewrites a YouTube or Vimeo page URL to the player URL
// that can be framed. Other URLs are returned unchanged.
func VideoEmbedURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case host == "youtu.be" || strings.HasSuffix(host, ".youtu.be"):
		if id := firstSegment(u.Path); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) == 2 && (segments[0] == "embed" || segments[0] == "shorts" || segments[0] == "live") {
			return "https://www.youtube.com/embed/" + segments[1]
		}
	case host == "vimeo.com" || strings.HasSuffix(host, ".vimeo.com"):
		if id := lastSegment(u.Path); id != "" {
			return "https://player.vimeo.com/video/" + id
		}
	}
	return raw
}

// MapEmbedURL returns the map URL to frame. Map providers hand out
// embeddable URLs directly, so it is used as given.
func MapEmbedURL(raw string) string {
	return strings.TrimSpace(raw)
}

func firstSegment(p string) string {
	return strings.SplitN(strings.Trim(p, "/"), "/", 2)[0]
}

func lastSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
