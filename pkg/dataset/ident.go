package dataset

// ident.go - SQL identifier and literal handling
//
// Identifiers accepted by the library are restricted to a conservative
// grammar so they can be interpolated into generated SQL after validation.
// Values always travel as bound parameters where the engine allows it;
// quoting helpers exist for the positions that cannot be parameterized
// (COPY targets, type names).

import (
	"fmt"
	"regexp"
	"strings"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// typePattern admits SQL type expressions such as VARCHAR, DECIMAL(10,2)
// or BIGINT[]. Anything outside this set is rejected before interpolation.
var typePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_ ]*(\([0-9, ]*\))?(\[\])?$`)

// validIdent reports whether name is a safe SQL identifier.
func validIdent(name string) error {
	if name == "" {
		return fmt.Errorf("identifier must not be empty")
	}
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must match [A-Za-z_][A-Za-z0-9_]*", name)
	}
	return nil
}

// quoteIdent double-quotes a previously validated identifier.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

// validType reports whether t is an acceptable SQL type expression.
func validType(t string) error {
	if t == "" {
		return fmt.Errorf("type must not be empty")
	}
	if !typePattern.MatchString(t) {
		return fmt.Errorf("invalid type expression %q", t)
	}
	return nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
