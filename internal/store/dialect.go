package store

import (
	"strconv"
	"strings"
)

// dialect captures the differences between the two relational backends:
// DDL and placeholder style. Queries in this package are written with "?"
// and rebound for backends that use numbered placeholders.
type dialect struct {
	name           string
	numbered       bool // $1..$n placeholders instead of ?
	createUsers    string
	createExams    string
	hasColumn      string // params: table name, column name
	alterAddColumn string
	createIndex    string
}

var sqliteDialect = dialect{
	name: "sqlite",
	createUsers: `
		CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			timezone TEXT NOT NULL DEFAULT 'Europe/Rome',
			notify_time TEXT NOT NULL DEFAULT '09:00',
			display_name TEXT NOT NULL DEFAULT '',
			handle TEXT NOT NULL DEFAULT ''
		)`,
	createExams: `
		CREATE TABLE IF NOT EXISTS exams (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			user_exam_id INTEGER,
			title TEXT NOT NULL,
			exam_datetime_iso TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)`,
	hasColumn:      `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
	alterAddColumn: `ALTER TABLE exams ADD COLUMN user_exam_id INTEGER`,
	createIndex:    `CREATE UNIQUE INDEX IF NOT EXISTS idx_exams_user_exam_per_user ON exams(user_id, user_exam_id)`,
}

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	createUsers: `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			timezone VARCHAR(100) NOT NULL DEFAULT 'Europe/Rome',
			notify_time VARCHAR(5) NOT NULL DEFAULT '09:00',
			display_name TEXT NOT NULL DEFAULT '',
			handle TEXT NOT NULL DEFAULT ''
		)`,
	createExams: `
		CREATE TABLE IF NOT EXISTS exams (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			user_exam_id INTEGER,
			title TEXT NOT NULL,
			exam_datetime_iso TEXT NOT NULL
		)`,
	hasColumn:      `SELECT COUNT(*) FROM information_schema.columns WHERE table_name = $1 AND column_name = $2`,
	alterAddColumn: `ALTER TABLE exams ADD COLUMN user_exam_id INTEGER`,
	createIndex:    `CREATE UNIQUE INDEX IF NOT EXISTS idx_exams_user_exam_per_user ON exams(user_id, user_exam_id)`,
}

// rebind converts "?" placeholders to "$1".."$n" for numbered dialects.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
