package condition

import "errors"

// ErrQuery is returned for condition trees, projections or page requests
// that cannot be turned into a valid query.
var ErrQuery = errors.New("query error")

// IsQueryError reports whether err wraps ErrQuery.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQuery)
}
