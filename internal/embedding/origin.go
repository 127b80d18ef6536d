package embedding

import (
	"errors"
	"net/url"
	"strings"
)

// ErrOriginNotAllowed is returned by Check for origins outside the allow-list.
var ErrOriginNotAllowed = errors.New("origin not allowed")

// Wildcard allows any parent origin. It must be configured explicitly.
const Wildcard = "*"

// OriginPolicy decides which parent frames may embed tours and which
// origin posted messages are addressed to.
type OriginPolicy struct {
	allowed  []string
	wildcard bool
}

// NewOriginPolicy builds a policy from configured origins. Entries are
// normalized to scheme://host[:port]; unparseable entries are dropped.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{}
	seen := make(map[string]bool)
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == Wildcard {
			p.wildcard = true
			continue
		}
		norm := Normalize(o)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		p.allowed = append(p.allowed, norm)
	}
	return p
}

// Normalize reduces a URL to its origin, or "" if it has none.
func Normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

// Origins returns the normalized allow-list, with "*" appended when the
// wildcard is configured.
func (p *OriginPolicy) Origins() []string {
	out := append([]string(nil), p.allowed...)
	if p.wildcard {
		out = append(out, Wildcard)
	}
	return out
}

// Allows reports whether origin may embed tours.
func (p *OriginPolicy) Allows(origin string) bool {
	if p.wildcard {
		return true
	}
	norm := Normalize(origin)
	for _, a := range p.allowed {
		if a == norm {
			return true
		}
	}
	return false
}

// Check returns ErrOriginNotAllowed unless origin is allowed.
func (p *OriginPolicy) Check(origin string) error {
	if !p.Allows(origin) {
		return ErrOriginNotAllowed
	}
	return nil
}

// TargetOrigin picks the postMessage target for an embed request. The
// referring page's origin wins when allowed; otherwise the first
// configured origin. With only the wildcard configured and no usable
// referer, "*" is returned.
func (p *OriginPolicy) TargetOrigin(referer string) string {
	if ref := Normalize(referer); ref != "" && p.Allows(ref) {
		return ref
	}
	if len(p.allowed) > 0 {
		return p.allowed[0]
	}
	if p.wildcard {
		return Wildcard
	}
	return ""
}

// FrameAncestors renders the CSP frame-ancestors directive.
func (p *OriginPolicy) FrameAncestors() string {
	if p.wildcard {
		return "frame-ancestors *"
	}
	parts := append([]string{"frame-ancestors", "'self'"}, p.allowed...)
	return strings.Join(parts, " ")
}
