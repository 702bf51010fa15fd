package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// likeEscape is declared in every LIKE clause as ESCAPE '!'. A backslash
// escape would mean different things to MySQL and PostgreSQL string literals.
const likeEscape = "!"

// escapeLikePattern escapes LIKE wildcards so user input matches literally.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, likeEscape, likeEscape+likeEscape)
	s = strings.ReplaceAll(s, "%", likeEscape+"%")
	s = strings.ReplaceAll(s, "_", likeEscape+"_")
	return s
}

func containsPattern(s string) string {
	return "%" + escapeLikePattern(strings.ToLower(s)) + "%"
}

func encodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(raw string) []string {
	var out []string
	if strings.TrimSpace(raw) == "" || json.Unmarshal([]byte(raw), &out) != nil {
		return nil
	}
	return out
}

func utcNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func mapNoRows(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// requireAffected returns notFound when an UPDATE touched no row and the row
// does not exist. MySQL reports zero affected rows for no-op updates, so a
// zero count alone is not enough.
func requireAffected(ctx context.Context, db *DB, res sql.Result, table, id string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return err
	}
	var count int
	if err := db.queryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id=?", id).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}
