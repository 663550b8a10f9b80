// parser.go - CREATE TABLE statements as a type list source
//
// A schema file is an alternative to spelling the attribute types on
// the command line: the column order of the statement becomes the
// decoder's attribute order.
package schema

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xwb1989/sqlparser"
)

// FromCreateTable parses one CREATE TABLE statement into a table
// definition. A column whose type has no decodable form fails the
// whole parse, naming the column.
func FromCreateTable(sql string) (*TableDef, error) {
	normalized, originals := normalizeTypes(sql)
	stmt, err := sqlparser.Parse(normalized)
	if err != nil {
		return nil, errors.Wrap(err, "parse create table")
	}
	ddl, ok := stmt.(*sqlparser.DDL)
	if !ok || ddl.Action != sqlparser.CreateStr {
		return nil, errors.New("statement is not CREATE TABLE")
	}
	if ddl.TableSpec == nil || len(ddl.TableSpec.Columns) == 0 {
		return nil, errors.New("CREATE TABLE carries no column list")
	}

	def := NewTableDef(ddl.Table.Name.String())
	for _, col := range ddl.TableSpec.Columns {
		c, err := fromColumnDef(col, originals)
		if err != nil {
			return nil, err
		}
		if err := def.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// FromFile reads a schema file and parses its CREATE TABLE statement.
func FromFile(path string) (*TableDef, error) {
	sql, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read schema file %s", path)
	}
	return FromCreateTable(string(sql))
}

func fromColumnDef(col *sqlparser.ColumnDefinition, originals map[string]string) (Column, error) {
	name := col.Name.String()
	sqlType := strings.ToLower(col.Type.Type)
	if orig, ok := originals[strings.ToLower(name)]; ok {
		sqlType = orig
	}

	length := 0
	if col.Type.Length != nil {
		length, _ = strconv.Atoi(string(col.Type.Length.Val))
	}

	tag, ok := tagForColumn(sqlType, length)
	if !ok {
		return Column{}, errors.Newf("column %s: type <%s> cannot be decoded", name, sqlType)
	}
	return Column{
		Name:    name,
		SQLType: sqlType,
		Tag:     tag,
		NotNull: bool(col.Type.NotNull),
	}, nil
}

// grammarTypes are the type names the parser's grammar takes as-is.
var grammarTypes = map[string]bool{
	"smallint": true, "int": true, "integer": true, "bigint": true,
	"real": true, "double": true, "float": true, "decimal": true,
	"numeric": true, "date": true, "time": true, "timestamp": true,
	"char": true, "varchar": true, "text": true, "json": true,
	"blob": true,
}

// tableItemKeywords open table-level clauses rather than columns.
var tableItemKeywords = map[string]bool{
	"constraint": true, "primary": true, "unique": true, "foreign": true,
	"check": true, "exclude": true, "key": true, "index": true,
	"like": true,
}

// normalizeTypes rewrites column types the parser's grammar does not
// know. The grammar speaks MySQL, so float8, timestamptz, uuid, serial
// and the rest of PostgreSQL's own names all stop the parse cold; each
// such type is replaced with a stand-in the grammar accepts, keeping
// any length qualifier, and the original spelling is recorded per
// column name so the definition keeps the real type.
func normalizeTypes(sql string) (string, map[string]string) {
	open := strings.IndexByte(sql, '(')
	if open < 0 {
		return sql, nil
	}
	end := matchParen(sql, open)
	if end < 0 {
		return sql, nil
	}

	originals := make(map[string]string)
	items := splitTopLevel(sql[open+1 : end])
	for i, item := range items {
		items[i] = normalizeColumn(item, originals)
	}
	return sql[:open+1] + strings.Join(items, ",") + sql[end:], originals
}

func normalizeColumn(item string, originals map[string]string) string {
	name, rest := takeWord(strings.TrimSpace(item))
	if name == "" || tableItemKeywords[strings.ToLower(name)] {
		return item
	}
	typ, parens, tail, zoned := takeTypeSpec(rest)
	if typ == "" {
		return item
	}
	if grammarTypes[typ] && !zoned {
		return item
	}
	// decimal takes zero, one or two length arguments, so it can stand
	// in for any of the rewritten types.
	originals[strings.ToLower(strings.Trim(name, "`"))] = typ
	return name + " decimal" + parens + tail
}

// takeTypeSpec reads a type name off the front of a column tail: the
// name itself (two words for "double precision" and "character
// varying"), an optional parenthesized length, and an optional
// "with/without time zone" suffix, which folds into the tz type names.
func takeTypeSpec(rest string) (typ, parens, tail string, zoned bool) {
	word, r := takeWord(rest)
	if word == "" {
		return "", "", rest, false
	}
	typ = strings.ToLower(word)
	if typ == "double" || typ == "character" {
		if next, r2 := takeWord(r); typ == "double" && strings.EqualFold(next, "precision") {
			typ, r = "double precision", r2
		} else if typ == "character" && strings.EqualFold(next, "varying") {
			typ, r = "character varying", r2
		}
	}
	if trimmed := strings.TrimLeft(r, " \t\r\n"); strings.HasPrefix(trimmed, "(") {
		if end := matchParen(trimmed, 0); end >= 0 {
			parens, r = trimmed[:end+1], trimmed[end+1:]
		}
	}
	if typ == "time" || typ == "timestamp" {
		if with, r2, ok := takeZoneSuffix(r); ok {
			if with {
				typ += "tz"
			}
			r, zoned = r2, true
		}
	}
	return typ, parens, r, zoned
}

func takeZoneSuffix(s string) (with bool, tail string, ok bool) {
	w1, r := takeWord(s)
	switch strings.ToLower(w1) {
	case "with":
		with = true
	case "without":
	default:
		return false, s, false
	}
	w2, r := takeWord(r)
	w3, r := takeWord(r)
	if !strings.EqualFold(w2, "time") || !strings.EqualFold(w3, "zone") {
		return false, s, false
	}
	return with, r, true
}

func takeWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	if s == "" {
		return "", ""
	}
	if s[0] == '`' {
		if end := strings.IndexByte(s[1:], '`'); end >= 0 {
			return s[:end+2], s[end+2:]
		}
		return s, ""
	}
	i := 0
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' ||
		'0' <= c && c <= '9'
}

// matchParen returns the index of the parenthesis closing the one at
// open, skipping quoted runs, or -1 when unbalanced.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		case '\'', '"', '`':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return -1
			}
			i += end + 1
		}
	}
	return -1
}

// splitTopLevel splits a column list on the commas at nesting depth
// zero, leaving length arguments and quoted runs intact.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		case '\'', '"', '`':
			if end := strings.IndexByte(s[i+1:], c); end >= 0 {
				i += end + 1
			}
		}
	}
	return append(parts, s[start:])
}
