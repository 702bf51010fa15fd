package middleware

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bryanwahyu/upstarter/internal/schema"
)

// Input validation and sanitization utilities

var projectIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateProjectID accepts Airtable record ids, uuids and local- ids.
func ValidateProjectID(id string) error {
	if id == "" {
		return fmt.Errorf("ID progetto mancante")
	}
	if !projectIDPattern.MatchString(id) {
		return fmt.Errorf("formato ID progetto non valido")
	}
	return nil
}

// ValidateBody checks raw JSON against a request schema and returns a short
// Italian message naming the first offending field.
func ValidateBody(v *schema.Validator, body []byte) error {
	err := v.Validate(body)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		field := strings.TrimPrefix(leaf.InstanceLocation, "/")
		if field == "" {
			return fmt.Errorf("richiesta non valida: %s", leaf.Message)
		}
		return fmt.Errorf("campo %q non valido: %s", field, leaf.Message)
	}
	return fmt.Errorf("JSON non valido")
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// SplitList parses a comma separated query value.
func SplitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = SanitizeString(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ValidateLimit parses a pagination limit and clamps it to [1, max].
func ValidateLimit(raw string, def, max int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// ParseBool treats "1", "true" and "yes" as true.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
