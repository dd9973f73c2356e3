package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// originPolicy decides which browser origins may open a websocket. Origins
// compare on lower-cased scheme and host; "*" admits any well-formed origin.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
	log      *slog.Logger
}

func newOriginPolicy(origins []string, log *slog.Logger) *originPolicy {
	p := &originPolicy{allowed: make(map[string]struct{}), log: log}

	for _, origin := range lo.Compact(lo.Map(origins, func(o string, _ int) string {
		return strings.TrimSpace(o)
	})) {
		if origin == "*" {
			p.allowAll = true
			continue
		}
		key, ok := originKey(origin)
		if !ok {
			log.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		p.allowed[key] = struct{}{}
	}
	return p
}

// originKey reduces an origin to scheme://host, or reports false when either
// part is missing.
func originKey(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}

// checkOrigin is the upgrader's CheckOrigin hook. Requests without an Origin
// header are refused.
func (p *originPolicy) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	key, ok := originKey(origin)
	if ok {
		if _, listed := p.allowed[key]; p.allowAll || listed {
			return true
		}
	}

	p.log.Warn("blocked websocket connection from disallowed origin", "origin", origin)
	return false
}
