package handshake

import (
	"log/slog"
	"net/http"
	"strings"

	"notify-service/internal/auth"
)

// Result is the outcome of an authorized handshake. Principal is nil when the
// connection proceeds anonymously (only possible with AllowAnonymous).
type Result struct {
	Principal   *auth.Principal
	Subprotocol string
}

// OriginChecker decides whether a handshake origin is acceptable. The default
// accepts every origin; deployments that need origin pinning inject their own.
type OriginChecker func(r *http.Request) bool

// OriginAllowList builds a checker that accepts requests without an Origin
// header (non-browser clients) and browser requests from the listed origins.
func OriginAllowList(origins []string) OriginChecker {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(o)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}

// Gatekeeper validates an upgrade request before any bytes of the WebSocket
// handshake are written: HTTP method, upgrade headers, protocol version,
// origin, handshake key, then authentication. Every rejection is resolved
// here as an HTTP status; callers only see authorized or not.
type Gatekeeper struct {
	resolver           auth.PrincipalResolver
	allowAnonymous     bool
	checkOrigin        OriginChecker
	supportedVersions  []string
	supportedProtocols []string
}

type Option func(*Gatekeeper)

func WithAllowAnonymous(allow bool) Option {
	return func(g *Gatekeeper) { g.allowAnonymous = allow }
}

func WithOriginChecker(check OriginChecker) Option {
	return func(g *Gatekeeper) { g.checkOrigin = check }
}

func WithSubprotocols(protocols ...string) Option {
	return func(g *Gatekeeper) { g.supportedProtocols = protocols }
}

func NewGatekeeper(resolver auth.PrincipalResolver, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		resolver:          resolver,
		checkOrigin:       func(*http.Request) bool { return true },
		supportedVersions: []string{"13"},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize runs the handshake checks in order. On rejection it writes the
// HTTP response and returns ok=false; on success nothing has been written and
// the caller upgrades the connection with the returned Result.
func (g *Gatekeeper) Authorize(w http.ResponseWriter, r *http.Request) (*Result, bool) {
	if r.Method != http.MethodGet {
		slog.Error("handshake failed due to unexpected HTTP method", "method", r.Method)
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		slog.Error("handshake failed due to invalid Upgrade header", "upgrade", r.Header.Get("Upgrade"))
		http.Error(w, `can "Upgrade" only to "WebSocket"`, http.StatusBadRequest)
		return nil, false
	}

	if !headerContainsToken(r.Header, "Connection", "upgrade") {
		slog.Error("handshake failed due to invalid Connection header", "connection", r.Header.Get("Connection"))
		http.Error(w, `"Connection" must be "upgrade"`, http.StatusBadRequest)
		return nil, false
	}

	if !g.versionSupported(r.Header.Get("Sec-WebSocket-Version")) {
		slog.Error("handshake failed due to unsupported WebSocket version",
			"version", r.Header.Get("Sec-WebSocket-Version"),
			"supported", g.supportedVersions)
		w.Header().Set("Sec-WebSocket-Version", strings.Join(g.supportedVersions, ", "))
		http.Error(w, "unsupported WebSocket version", http.StatusUpgradeRequired)
		return nil, false
	}

	if !g.checkOrigin(r) {
		slog.Error("handshake failed due to rejected origin", "origin", r.Header.Get("Origin"))
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return nil, false
	}

	if r.Header.Get("Sec-WebSocket-Key") == "" {
		slog.Error(`handshake failed due to missing "Sec-WebSocket-Key" header`)
		http.Error(w, `missing "Sec-WebSocket-Key" header`, http.StatusBadRequest)
		return nil, false
	}

	principal, err := g.resolver.Resolve(r)
	if err != nil {
		slog.Error("handshake authentication failed", "error", err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return nil, false
	}
	if principal == nil && !g.allowAnonymous {
		slog.Error("handshake rejected: no credentials and anonymous access disabled")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}

	return &Result{
		Principal:   principal,
		Subprotocol: SelectSubprotocol(ParseProtocolHeader(r.Header), g.supportedProtocols),
	}, true
}

func (g *Gatekeeper) versionSupported(version string) bool {
	for _, v := range g.supportedVersions {
		if v == strings.TrimSpace(version) {
			return true
		}
	}
	return false
}

// headerContainsToken reports whether any value of the named header contains
// the given token in its comma-separated list, case-insensitively.
func headerContainsToken(h http.Header, name, token string) bool {
	for _, value := range h.Values(name) {
		for _, part := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}
