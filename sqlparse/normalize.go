// Package sqlparse is the default parser-collaborator adapter: it turns
// SQLite-flavored SQL text into the query.CompiledIntent / predicate.Intent
// shapes the engine core consumes, by normalizing SQLite syntax into the
// MySQL dialect github.com/xwb1989/sqlparser understands and then walking
// its AST.
package sqlparse

import "strings"

// normalizeSQLiteToMySQL rewrites SQLite's "PRIMARY KEY AUTOINCREMENT"
// (in four upper/lower-case spellings) to MySQL's "AUTO_INCREMENT PRIMARY
// KEY", which trips up the MySQL-dialect grammar otherwise. Quoting and all
// other text are passed through unchanged.
func normalizeSQLiteToMySQL(sql string) string {
	normalized := strings.ReplaceAll(sql, "primary key autoincrement", "AUTO_INCREMENT PRIMARY KEY")
	normalized = strings.ReplaceAll(normalized, "PRIMARY KEY AUTOINCREMENT", "AUTO_INCREMENT PRIMARY KEY")
	normalized = strings.ReplaceAll(normalized, "primary key AUTOINCREMENT", "AUTO_INCREMENT PRIMARY KEY")
	normalized = strings.ReplaceAll(normalized, "PRIMARY KEY autoincrement", "AUTO_INCREMENT PRIMARY KEY")
	return normalized
}

// stripQuotes removes a single layer of matching ' " or ` quoting around a
// literal or identifier, the way SQLite schema text commonly quotes names.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
