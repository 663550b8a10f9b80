// column.go - Column definitions and SQL type mapping
package schema

// Column is one table attribute in DDL order, carrying the decoder
// type tag its SQL type maps onto.
type Column struct {
	Name    string
	SQLType string // lowercased type name as written in the DDL
	Tag     string // decoder type tag
	NotNull bool
}

// typeTags maps SQL type names onto decoder tags. char and varchar are
// length-qualified instead, see tagForColumn. Types with no entry have
// no decodable on-disk form.
var typeTags = map[string]string{
	"smallint":         "smallint",
	"int2":             "smallint",
	"int":              "int",
	"integer":          "int",
	"int4":             "int",
	"bigint":           "bigint",
	"int8":             "bigint",
	"smallserial":      "smallserial",
	"serial":           "serial",
	"bigserial":        "bigserial",
	"oid":              "oid",
	"xid":              "xid",
	"real":             "real",
	"float4":           "real",
	"float":            "float",
	"float8":           "float8",
	"double":           "float8",
	"double precision": "float8",
	"numeric":          "numeric",
	"decimal":          "numeric",
	"bool":             "bool",
	"boolean":          "bool",
	"date":             "date",
	"time":             "time",
	"timetz":           "timetz",
	"timestamp":        "timestamp",
	"timestamptz":      "timestamptz",
	"uuid":             "uuid",
	"macaddr":          "macaddr",
	"name":             "name",
	"json":             "json",
	"xml":              "xml",
	"text":             "text",
}

// tagForColumn resolves a SQL type to its decoder tag. A char of more
// than one character is stored as a padded varlena, unlike the
// single-byte "char" type.
func tagForColumn(sqlType string, length int) (string, bool) {
	switch sqlType {
	case "char", "character":
		if length > 1 {
			return "charn", true
		}
		return "char", true
	case "varchar", "character varying":
		return "varchar", true
	}
	tag, ok := typeTags[sqlType]
	return tag, ok
}
