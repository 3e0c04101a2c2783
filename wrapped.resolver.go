package wrapped

import (
	"fmt"
	"strings"
)

// Resolver maps a placeholder to a replacement. It returns false when it
// has nothing for the item, and the pipeline moves on to the next resolver.
type Resolver interface {
	Resolve(item Item) (string, bool)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(item Item) (string, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(item Item) (string, bool) {
	return f(item)
}

// chainResolver tries resolvers in order
type chainResolver []Resolver

// Resolve implements Resolver.
func (c chainResolver) Resolve(item Item) (string, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if v, ok := r.Resolve(item); ok {
			return v, true
		}
	}
	return "", false
}

// Chain composes resolvers; the first one that resolves an item wins.
func Chain(resolvers ...Resolver) Resolver {
	return chainResolver(resolvers)
}

// KindResolver restricts r to placeholders of one wrapper kind.
func KindResolver(kind WrapperKind, r Resolver) Resolver {
	return ResolverFunc(func(item Item) (string, bool) {
		if item.Wrapper != kind {
			return "", false
		}
		return r.Resolve(item)
	})
}

// MapResolver resolves placeholders from a flat map. The exact interior
// text is tried first, then the whitespace-trimmed text, so {{ name }}
// and {name} both find "name". When kinds are given, other kinds are
// left unresolved.
func MapResolver(values map[string]string, kinds ...WrapperKind) Resolver {
	accept := kindSet(kinds)
	return ResolverFunc(func(item Item) (string, bool) {
		if !accept(item.Wrapper) {
			return "", false
		}
		if v, ok := values[item.Text]; ok {
			return v, true
		}
		v, ok := values[strings.TrimSpace(item.Text)]
		return v, ok
	})
}

// ValuesResolver resolves dot paths such as "user.name" against nested
// maps. Values are rendered with fmt.Sprint. Missing keys and nil values
// do not resolve. When kinds are given, other kinds are left unresolved.
func ValuesResolver(data map[string]any, kinds ...WrapperKind) Resolver {
	accept := kindSet(kinds)
	return ResolverFunc(func(item Item) (string, bool) {
		if !accept(item.Wrapper) {
			return "", false
		}
		v, ok := lookupPath(data, strings.TrimSpace(item.Text))
		if !ok || v == nil {
			return "", false
		}
		return fmt.Sprint(v), true
	})
}

// EnvResolver resolves ${NAME} placeholders through lookup, typically
// os.LookupEnv. Other kinds are left unresolved.
func EnvResolver(lookup func(string) (string, bool)) Resolver {
	return ResolverFunc(func(item Item) (string, bool) {
		if item.Wrapper != WrapperDollarCurly || lookup == nil {
			return "", false
		}
		return lookup(strings.TrimSpace(item.Text))
	})
}

// kindSet returns a predicate accepting kinds, or every kind when empty
func kindSet(kinds []WrapperKind) func(WrapperKind) bool {
	if len(kinds) == 0 {
		return func(WrapperKind) bool { return true }
	}
	set := make(map[WrapperKind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return func(k WrapperKind) bool {
		_, ok := set[k]
		return ok
	}
}

// lookupPath walks data following a dot-separated path. A key that
// exists verbatim (dots included) takes precedence over walking.
func lookupPath(data map[string]any, path string) (any, bool) {
	if path == "" || data == nil {
		return nil, false
	}
	if v, ok := data[path]; ok {
		return v, true
	}

	var current any = data
	for _, part := range strings.Split(path, PathSeparator) {
		switch m := current.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		case map[string]string:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}
