package schema

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeDefault converts an arbitrary Go default value into the verbatim
// SQL expression stored on Column.Default, per the §3 invariants: booleans
// become TRUE/FALSE, time.Time becomes an ISO-8601 string literal, and nil
// forces the column nullable with no DEFAULT clause at all.
//
// Returns the normalized expression (nil means "no default") and whether the
// column must be treated as nullable as a result.
func NormalizeDefault(value any) (expr *string, forcesNullable bool) {
	if value == nil {
		return nil, true
	}

	switch v := value.(type) {
	case bool:
		s := "FALSE"
		if v {
			s = "TRUE"
		}
		return &s, false
	case string:
		return &v, false
	case time.Time:
		s := v.Format(time.RFC3339)
		return &s, false
	default:
		s := fmt.Sprint(v)
		return &s, false
	}
}

// QuoteIdent double-quotes a Postgres identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
