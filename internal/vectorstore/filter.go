package vectorstore

// Filter restricts a search to vectors whose metadata matches every
// condition. A condition value is either a string (equality) or a []string
// (membership). Conditions combine with AND across keys; membership values
// combine with OR within a key.
//
// Every backend applies the same semantics. The memory index and chromem
// evaluate filters through Matches; Qdrant translates them to native match
// conditions.
type Filter map[string]any

// Eq adds an equality condition and returns the filter for chaining.
func (f Filter) Eq(key, value string) Filter {
	f[key] = value
	return f
}

// In adds a membership condition and returns the filter for chaining.
func (f Filter) In(key string, values []string) Filter {
	f[key] = values
	return f
}

// Matches reports whether the metadata satisfies every condition.
// A nil or empty filter matches everything. A condition with an unsupported
// value type, or an empty membership set, matches nothing.
func (f Filter) Matches(metadata map[string]string) bool {
	for key, cond := range f {
		value, ok := metadata[key]
		if !ok {
			return false
		}
		switch want := cond.(type) {
		case string:
			if value != want {
				return false
			}
		case []string:
			found := false
			for _, w := range want {
				if value == w {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// equalityOnly reports whether every condition is a plain equality, in which
// case the filter can be pushed down to backends that only support exact
// metadata matches.
func (f Filter) equalityOnly() bool {
	for _, cond := range f {
		if _, ok := cond.(string); !ok {
			return false
		}
	}
	return true
}

// equalityMap returns the filter as a string map. Only valid when
// equalityOnly reports true.
func (f Filter) equalityMap() map[string]string {
	if len(f) == 0 {
		return nil
	}
	out := make(map[string]string, len(f))
	for key, cond := range f {
		if s, ok := cond.(string); ok {
			out[key] = s
		}
	}
	return out
}
