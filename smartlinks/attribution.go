package smartlinks

import (
	"net"
	"net/http"
	"strings"
)

const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	SourceUnknown = "unknown"
)

// ClickMeta is the attribution captured with a redirect.
type ClickMeta struct {
	Source    string
	Device    string
	IP        string
	UserAgent string
	Referrer  string
}

// ClickMetaFromRequest reads attribution from the "src" query parameter and
// request headers.
func ClickMetaFromRequest(r *http.Request) ClickMeta {
	ua := r.Header.Get("User-Agent")
	return ClickMeta{
		Source:    SourceFromQuery(r.URL.Query().Get("src")),
		Device:    DeviceFromUserAgent(ua),
		IP:        ClientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr),
		UserAgent: ua,
		Referrer:  r.Header.Get("Referer"),
	}
}

func SourceFromQuery(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return SourceUnknown
	}
	return src
}

// DeviceFromUserAgent classifies any agent containing "Mobile" as mobile.
func DeviceFromUserAgent(ua string) string {
	if strings.Contains(ua, "Mobile") {
		return DeviceMobile
	}
	return DeviceDesktop
}

// ClientIP prefers the first X-Forwarded-For entry, then the peer address.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
