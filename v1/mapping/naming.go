package mapping

import (
	"strings"
	"unicode"
)

// NamingStrategy maps logical (lowerCamel) field names to stored keys and
// back. ToLogical(ToWire(name)) == name for every valid lowerCamel name.
type NamingStrategy interface {
	ToWire(logical string) string
	ToLogical(wire string) string
}

type camelCase struct{}

func (camelCase) ToWire(logical string) string { return logical }
func (camelCase) ToLogical(wire string) string { return wire }

type snakeCase struct{}

func (snakeCase) ToWire(logical string) string  { return ToSnakeCase(logical) }
func (snakeCase) ToLogical(wire string) string { return ToCamelCase(wire) }

var (
	// CamelCase stores fields under their logical name.
	CamelCase NamingStrategy = camelCase{}

	// SnakeCase stores userName as user_name.
	SnakeCase NamingStrategy = snakeCase{}
)

// NamingStrategyFor returns SnakeCase for "snake" or "snake_case" and
// CamelCase for anything else.
func NamingStrategyFor(name string) NamingStrategy {
	switch strings.ToLower(name) {
	case "snake", "snake_case":
		return SnakeCase
	default:
		return CamelCase
	}
}

// ToSnakeCase maps each upper-case rune to "_" plus its lower-case form.
// The transform is per rune so that ToCamelCase can invert it exactly.
func ToSnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamelCase upper-cases each rune that follows an underscore and drops
// the underscore.
func ToCamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lowerCamel turns an exported Go identifier into its logical name:
// UserName -> userName, ID -> id, URLPath -> urlPath.
func lowerCamel(goName string) string {
	runes := []rune(goName)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return goName
	case n == 1 || n == len(runes):
	default:
		// Keep the last capital of an acronym run when a word follows it.
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
