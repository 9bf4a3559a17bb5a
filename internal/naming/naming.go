// Package naming turns raw database identifiers into names that are safe to
// embed in generated code, SQL statement templates and wiki links.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/koustreak/dbgen/internal/errs"
)

// Normalize upper-cases the first character of raw and leaves every other
// byte untouched. Generated templates reference both the raw and the
// normalized name, so no other transformation is allowed here.
//
// An empty identifier is returned unchanged with an EmptyIdentifier error.
func Normalize(raw string) (string, error) {
	if raw == "" {
		return raw, errs.New(errs.ErrKindEmptyIdentifier, "identifier is empty")
	}
	r, size := utf8.DecodeRuneInString(raw)
	if r == utf8.RuneError {
		return raw, nil
	}
	up := unicode.ToUpper(r)
	if up == r {
		return raw, nil
	}
	return string(up) + raw[size:], nil
}

// MustNormalize is Normalize for names already known to be non-empty
// (schema model column and table names).
func MustNormalize(raw string) string {
	n, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return n
}

var lower = cases.Lower(language.Und)

// LinkSlug returns the lower-cased form used as a wiki link target.
func LinkSlug(name string) string {
	return lower.String(name)
}

// PackageName derives a Go package name from a database name: lower-cased,
// with every character that is not a letter or digit dropped.
func PackageName(name string) string {
	var b strings.Builder
	for _, r := range LinkSlug(name) {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	pkg := b.String()
	if pkg == "" || unicode.IsDigit(rune(pkg[0])) {
		pkg = "models" + pkg
	}
	return pkg
}
