package airtable

import "strings"

// Formula is an Airtable filterByFormula expression. Build it only through
// the helpers below so every literal is quoted.
type Formula string

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// Quote renders s as a double-quoted formula string literal.
func Quote(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

// Field renders a field reference. Braces cannot be escaped inside a
// reference so they are dropped from the name.
func Field(name string) string {
	name = strings.NewReplacer("{", "", "}", "").Replace(name)
	return "{" + name + "}"
}

// Eq matches records whose field equals value.
func Eq(field, value string) Formula {
	return Formula(Field(field) + "=" + Quote(value))
}

// NotEq matches records whose field differs from value.
func NotEq(field, value string) Formula {
	return Formula(Field(field) + "!=" + Quote(value))
}

// Contains is a case-insensitive substring match.
func Contains(field, value string) Formula {
	return Formula("FIND(" + Quote(strings.ToLower(value)) + ",LOWER(" + Field(field) + "))>0")
}

// And joins non-empty clauses. Zero clauses yield an empty formula.
func And(clauses ...Formula) Formula { return join("AND", clauses) }

// Or joins non-empty clauses. Zero clauses yield an empty formula.
func Or(clauses ...Formula) Formula { return join("OR", clauses) }

func join(op string, clauses []Formula) Formula {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, string(c))
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return Formula(parts[0])
	}
	return Formula(op + "(" + strings.Join(parts, ",") + ")")
}
