package bridge

import "strings"

// Discriminator decides from a View whether a source understands a message.
// It runs before Parse on every candidate source, so it only looks at a few
// fields.
type Discriminator interface {
	Match(v View) bool
}

// DiscriminatorFunc adapts a function to a Discriminator.
type DiscriminatorFunc func(v View) bool

// Match implements Discriminator.
func (f DiscriminatorFunc) Match(v View) bool { return f(v) }

// EventType matches messages whose "type" field is one of types. Every
// built-in source starts with it.
func EventType(types ...string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		kind := v.Type()
		if kind == "" {
			return false
		}
		for _, t := range types {
			if kind == t {
				return true
			}
		}
		return false
	})
}

// HasFields matches when every path exists.
func HasFields(paths ...string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, p := range paths {
			if !v.HasField(p) {
				return false
			}
		}
		return true
	})
}

// FieldEquals matches when path holds exactly value.
func FieldEquals(path, value string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		s, ok := v.GetString(path)
		return ok && s == value
	})
}

// FieldPrefix matches when path holds a string starting with prefix, such as
// an href inside the application root.
func FieldPrefix(path, prefix string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		s, ok := v.GetString(path)
		return ok && strings.HasPrefix(s, prefix)
	})
}

// FieldTrue matches when path holds the boolean true. Missing flags, like an
// absent "ctrlKey", do not match.
func FieldTrue(path string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		b, ok := v.GetBool(path)
		return ok && b
	})
}

// And matches when all of ds match. An empty And always matches.
func And(ds ...Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, d := range ds {
			if !d.Match(v) {
				return false
			}
		}
		return true
	})
}

// Or matches when any of ds matches. An empty Or never matches.
func Or(ds ...Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, d := range ds {
			if d.Match(v) {
				return true
			}
		}
		return false
	})
}

// Not inverts d.
func Not(d Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool { return !d.Match(v) })
}
