package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
  id          VARCHAR(64) PRIMARY KEY,
  user_email  VARCHAR(255) NOT NULL,
  title       VARCHAR(512) NOT NULL,
  description {{text}} NOT NULL,
  source      VARCHAR(32) NOT NULL,
  status      VARCHAR(32) NOT NULL,
  score       INTEGER NOT NULL DEFAULT 0,
  type        VARCHAR(128) NOT NULL,
  created_at  {{ts}} NOT NULL,
  updated_at  {{ts}} NOT NULL
);
CREATE INDEX {{ifnot}} idx_projects_user ON projects (user_email, created_at);
CREATE TABLE IF NOT EXISTS analyses (
  id                 VARCHAR(64) PRIMARY KEY,
  project_id         VARCHAR(64) NOT NULL,
  overall_score      INTEGER NOT NULL DEFAULT 0,
  analysis_data      {{text}} NOT NULL,
  missing_areas      {{text}} NOT NULL,
  completeness_score INTEGER NOT NULL DEFAULT 0,
  engine             VARCHAR(32) NOT NULL,
  created_at         {{ts}} NOT NULL
);
CREATE INDEX {{ifnot}} idx_analyses_project ON analyses (project_id, created_at);
CREATE TABLE IF NOT EXISTS additional_info (
  id            VARCHAR(64) PRIMARY KEY,
  project_id    VARCHAR(64) NOT NULL,
  category      VARCHAR(128) NOT NULL,
  content       {{text}} NOT NULL,
  priority      VARCHAR(16) NOT NULL,
  step_required BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS team_profiles (
  id               VARCHAR(64) PRIMARY KEY,
  user_email       VARCHAR(255) NOT NULL UNIQUE,
  name             VARCHAR(255) NOT NULL,
  bio              {{text}} NOT NULL,
  skills           {{text}} NOT NULL,
  industry_focus   {{text}} NOT NULL,
  role             VARCHAR(128) NOT NULL,
  looking_for      {{text}} NOT NULL,
  location         VARCHAR(255) NOT NULL,
  experience_years INTEGER NOT NULL DEFAULT 0,
  availability     VARCHAR(64) NOT NULL,
  linkedin_url     VARCHAR(512) NOT NULL,
  created_at       {{ts}} NOT NULL,
  updated_at       {{ts}} NOT NULL
);
`

func (d Dialect) schema() []string {
	text, ts, ifnot := "TEXT", "TIMESTAMP", "IF NOT EXISTS"
	if d == MySQL {
		// MySQL has no CREATE INDEX IF NOT EXISTS; duplicates are ignored in Migrate
		text, ts, ifnot = "LONGTEXT", "DATETIME(6)", ""
	}
	s := strings.NewReplacer("{{text}}", text, "{{ts}}", ts, "{{ifnot}}", ifnot).Replace(schema)

	var out []string
	for _, stmt := range strings.Split(s, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate creates the tables when they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range db.Dialect.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if db.Dialect == MySQL && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
