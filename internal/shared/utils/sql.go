package utils

import (
	"fmt"
	"strings"
)

// JoinWithAnd joins WHERE clauses with AND, empty input gives "TRUE"
func JoinWithAnd(clauses []string) string {
	if len(clauses) == 0 {
		return "TRUE"
	}
	return strings.Join(clauses, " AND ")
}

// EscapeLike escapes the ILIKE wildcards in user input and wraps it in %...%
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return fmt.Sprintf("%%%s%%", r.Replace(s))
}
