package metadata

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"bellgas/pkg/requestcontext"
)

// ClientMetadata stores the client IP and User-Agent on the request context.
// Apply it before anything that audits or rate limits by address.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest returns the caller's address. X-Forwarded-For and
// X-Real-IP are honoured only when the direct peer is a loopback or private
// address, i.e. a reverse proxy in front of the server; otherwise a client
// could pick its own lockout key.
func ClientIPFromRequest(r *http.Request) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return "unknown"
	}
	if !peer.IsLoopback() && !peer.IsPrivate() {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap().String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.Unmap().String()
		}
	}
	return peer.String()
}

func peerAddr(remote string) (netip.Addr, bool) {
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
