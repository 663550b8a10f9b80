package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromCreateTable(t *testing.T) {
	def, err := FromCreateTable(`CREATE TABLE orders (
		id int NOT NULL,
		label varchar(40),
		note text,
		price decimal(10,2),
		flag boolean,
		placed timestamp
	)`)
	require.NoError(t, err)
	require.Equal(t, "orders", def.Name)
	require.Len(t, def.Columns, 6)
	require.Equal(t, "int,varchar,text,numeric,bool,timestamp", def.TypeList())

	id, ok := def.Lookup("id")
	require.True(t, ok)
	require.True(t, id.NotNull)
	require.Equal(t, "int", id.SQLType)

	label, ok := def.Lookup("label")
	require.True(t, ok)
	require.False(t, label.NotNull)
	require.Equal(t, "varchar", label.Tag)
}

func TestFromCreateTablePostgresTypeNames(t *testing.T) {
	// none of these names exist in the underlying MySQL grammar
	def, err := FromCreateTable(`CREATE TABLE mixed (
		ok boolean,
		raw bool NOT NULL,
		seen timestamptz,
		token uuid,
		nic macaddr,
		ratio double precision,
		weight float8,
		at timetz,
		relname name,
		doc xml,
		seq bigserial
	)`)
	require.NoError(t, err)
	require.Equal(t,
		"bool,bool,timestamptz,uuid,macaddr,float8,float8,timetz,name,xml,bigserial",
		def.TypeList())

	raw, ok := def.Lookup("raw")
	require.True(t, ok)
	require.True(t, raw.NotNull)
	require.Equal(t, "bool", raw.SQLType)

	ratio, ok := def.Lookup("ratio")
	require.True(t, ok)
	require.Equal(t, "double precision", ratio.SQLType)
}

func TestFromCreateTableZoneSuffixes(t *testing.T) {
	def, err := FromCreateTable(`CREATE TABLE spans (
		opened timestamp with time zone,
		closed timestamp without time zone,
		daily time with time zone,
		label character varying(20)
	)`)
	require.NoError(t, err)
	require.Equal(t, "timestamptz,timestamp,timetz,varchar", def.TypeList())
}

func TestFromCreateTableCharWidths(t *testing.T) {
	def, err := FromCreateTable(`CREATE TABLE t (one char(1), wide char(8))`)
	require.NoError(t, err)
	require.Equal(t, "char,charn", def.TypeList())
}

func TestFromCreateTableRejectsUnknownType(t *testing.T) {
	_, err := FromCreateTable(`CREATE TABLE t (payload blob)`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "column payload")
	require.Contains(t, err.Error(), "<blob>")
}

func TestFromCreateTableRejectsNonCreate(t *testing.T) {
	_, err := FromCreateTable(`SELECT 1`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not CREATE TABLE")
}

func TestFromCreateTableRejectsDuplicateColumn(t *testing.T) {
	_, err := FromCreateTable(`CREATE TABLE t (a int, a text)`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "listed twice")
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.sql")
	require.NoError(t, os.WriteFile(path,
		[]byte("CREATE TABLE orders (id bigint, placed date)"), 0o644))

	def, err := FromFile(path)
	require.NoError(t, err)
	require.Equal(t, "bigint,date", def.TypeList())

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.sql"))
	require.Error(t, err)
}
