package crawler

import (
	"fmt"
	"strings"
)

type segmentKind int

const (
	segmentStatic segmentKind = iota
	segmentParam
	segmentOptional
	segmentWildcard
)

type segment struct {
	kind  segmentKind
	value string
}

// RouteDefinition is one compiled manifest pattern.
type RouteDefinition struct {
	// Pattern is the pattern as declared in the manifest; it is the route key used for dedup.
	Pattern  string
	segments []segment
}

// CompileRoutes parses manifest patterns, keeping declaration order.
// Supported segments: static text, ":name", ":name?" (last segment only) and "*" (last segment only).
func CompileRoutes(manifest []string) ([]RouteDefinition, error) {
	out := make([]RouteDefinition, 0, len(manifest))
	for i, pattern := range manifest {
		def, err := compileRoute(pattern)
		if err != nil {
			return nil, fmt.Errorf("route[%d] %q: %w", i, pattern, err)
		}
		out = append(out, def)
	}
	return out, nil
}

func compileRoute(pattern string) (RouteDefinition, error) {
	parts := splitPath(pattern)
	def := RouteDefinition{Pattern: pattern, segments: make([]segment, 0, len(parts))}

	for i, part := range parts {
		last := i == len(parts)-1
		switch {
		case part == "*":
			if !last {
				return RouteDefinition{}, fmt.Errorf("wildcard must be the last segment")
			}
			def.segments = append(def.segments, segment{kind: segmentWildcard})
		case strings.HasPrefix(part, ":") && strings.HasSuffix(part, "?"):
			name := strings.TrimSuffix(strings.TrimPrefix(part, ":"), "?")
			if name == "" {
				return RouteDefinition{}, fmt.Errorf("empty parameter name")
			}
			if !last {
				return RouteDefinition{}, fmt.Errorf("optional parameter %q must be the last segment", name)
			}
			def.segments = append(def.segments, segment{kind: segmentOptional, value: name})
		case strings.HasPrefix(part, ":"):
			name := strings.TrimPrefix(part, ":")
			if name == "" {
				return RouteDefinition{}, fmt.Errorf("empty parameter name")
			}
			def.segments = append(def.segments, segment{kind: segmentParam, value: name})
		default:
			def.segments = append(def.segments, segment{kind: segmentStatic, value: part})
		}
	}
	return def, nil
}

// MatchRoute returns the first definition, in declaration order, whose segments match path.
func MatchRoute(path string, routes []RouteDefinition) (RouteDefinition, bool) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := splitPath(path)
	for _, def := range routes {
		if def.matches(parts) {
			return def, true
		}
	}
	return RouteDefinition{}, false
}

// Params extracts named parameter values for a path this definition matches.
func (r RouteDefinition) Params(path string) map[string]string {
	parts := splitPath(path)
	if !r.matches(parts) {
		return nil
	}
	params := make(map[string]string)
	for i, seg := range r.segments {
		switch seg.kind {
		case segmentParam, segmentOptional:
			if i < len(parts) {
				params[seg.value] = parts[i]
			}
		case segmentWildcard:
			params["*"] = strings.Join(parts[i:], "/")
		}
	}
	return params
}

func (r RouteDefinition) matches(parts []string) bool {
	n := len(r.segments)
	if n == 0 {
		return len(parts) == 0
	}

	switch r.segments[n-1].kind {
	case segmentWildcard:
		if len(parts) < n {
			return false
		}
	case segmentOptional:
		if len(parts) != n && len(parts) != n-1 {
			return false
		}
	default:
		if len(parts) != n {
			return false
		}
	}

	for i, seg := range r.segments {
		if i >= len(parts) {
			// only a trailing optional parameter may be missing
			return seg.kind == segmentOptional
		}
		switch seg.kind {
		case segmentStatic:
			if parts[i] != seg.value {
				return false
			}
		case segmentParam, segmentOptional:
			if parts[i] == "" {
				return false
			}
		case segmentWildcard:
			return true
		}
	}
	return true
}

// splitPath drops leading and trailing slashes and splits on the rest.
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
