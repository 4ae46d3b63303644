// Package device derives human-readable device labels for audit records.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent labels a User-Agent as "Browser on OS", suffixed with
// "(mobile)" for handsets. Crawlers are labelled "Bot (<name>)" so admins can
// tell scripted login attempts apart in the audit log.
func ParseUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}
	ua := useragent.New(userAgent)

	browser, _ := ua.Browser()
	browser = firstNonEmpty(browser, "Unknown Browser")
	if ua.Bot() {
		return "Bot (" + browser + ")"
	}

	label := browser + " on " + firstNonEmpty(ua.OS(), ua.Platform(), "Unknown OS")
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
