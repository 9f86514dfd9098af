package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamingInverse(t *testing.T) {
	names := []string{"userName", "id", "createdAt", "addressLine2", "a", "urlPath", "userID", "x1Y2"}
	for _, n := range names {
		assert.Equal(t, n, ToCamelCase(ToSnakeCase(n)), n)
		assert.Equal(t, n, SnakeCase.ToLogical(SnakeCase.ToWire(n)), n)
		assert.Equal(t, n, CamelCase.ToLogical(CamelCase.ToWire(n)), n)
	}
	assert.Equal(t, "user_name", ToSnakeCase("userName"))
	assert.Equal(t, "userName", ToCamelCase("user_name"))
}

func TestLowerCamel(t *testing.T) {
	cases := map[string]string{
		"UserName": "userName",
		"ID":       "id",
		"URLPath":  "urlPath",
		"A":        "a",
		"already":  "already",
	}
	for in, want := range cases {
		assert.Equal(t, want, lowerCamel(in), in)
	}
}

func TestNamingStrategyFor(t *testing.T) {
	assert.Equal(t, SnakeCase, NamingStrategyFor("snake"))
	assert.Equal(t, SnakeCase, NamingStrategyFor("SNAKE_CASE"))
	assert.Equal(t, CamelCase, NamingStrategyFor(""))
}
