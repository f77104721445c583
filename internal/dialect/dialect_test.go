package dialect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: "postgis"},
		{name: "postgis", want: "postgis"},
		{name: "PostgreSQL", want: "postgis"},
		{name: "mysql", want: "mysql"},
		{name: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.name, Columns{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	pg := &Postgis{Columns: DefaultColumns()}
	assert.Equal(t, `"roads"."lines"`, pg.QuoteIdentifier("roads", "lines"))
	assert.Equal(t, `"odd""name"`, pg.QuoteIdentifier(`odd"name`))

	my := &MySQL{Columns: DefaultColumns()}
	assert.Equal(t, "`roads`.`lines`", my.QuoteIdentifier("roads", "lines"))
	assert.Equal(t, "`odd``name`", my.QuoteIdentifier("odd`name"))
}

func TestPostgisDSN(t *testing.T) {
	pg := &Postgis{}
	dsn := pg.DSN(ConnectionParams{Database: "qa", User: "postgres", Password: "it's"})

	assert.Equal(t, `host='localhost' port='5432' dbname='qa' sslmode=disable user='postgres' password='it\'s'`, dsn)
}

func TestMySQLDSN(t *testing.T) {
	my := &MySQL{}
	dsn := my.DSN(ConnectionParams{Host: "db", Port: "3307", Database: "qa", User: "root", Password: "secret"})

	assert.True(t, strings.HasPrefix(dsn, "root:secret@tcp(db:3307)/qa"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
}

func TestPostgisRuleQueries(t *testing.T) {
	pg := &Postgis{Columns: DefaultColumns()}

	assert.Equal(t,
		`SELECT "id" AS fid, reason(ST_IsValidDetail("geom")) AS reason, `+
			`ST_AsText(location(ST_IsValidDetail("geom"))) AS location `+
			`FROM "invalid_geoms"."linestrings" WHERE ST_IsValid("geom") = false ORDER BY "id"`,
		pg.InvalidGeomsQuery("invalid_geoms", "linestrings"))

	assert.Equal(t,
		`SELECT fid, dup_row AS number FROM (`+
			`SELECT "id" AS fid, ROW_NUMBER() OVER(PARTITION BY "geom" ORDER BY "id" ASC) AS dup_row `+
			`FROM ONLY "duplicate_geoms"."points" WHERE "geom" IS NOT NULL) dups `+
			`WHERE dups.dup_row > 1 ORDER BY fid`,
		pg.DuplicateGeomsQuery("duplicate_geoms", "points"))

	assert.Equal(t,
		`SELECT "id" AS fid, ST_NumGeometries("geom") AS number FROM "multi_geoms"."points" `+
			`WHERE ST_NumGeometries("geom") > 1 ORDER BY "id"`,
		pg.MultipartGeomsQuery("multi_geoms", "points"))

	assert.Equal(t,
		`SELECT "id" AS fid FROM "null_geoms"."points" WHERE "geom" IS NULL ORDER BY "id"`,
		pg.NullGeomsQuery("null_geoms", "points"))
}

func TestPostgisIntersectionQuery(t *testing.T) {
	pg := &Postgis{Columns: Columns{ID: "gid", Geom: "the_geom"}}
	query := pg.IntersectionQuery("n_a_i_crosses", "linestrings1", "linestrings2")

	assert.Equal(t,
		`SELECT t1id, t2id, ST_AsGeoJSON(gi, 3) AS gi_json, ST_AsGeoJSON(g1, 3) AS g1_json, `+
			`ST_AsGeoJSON(g2, 3) AS g2_json, ST_AsText(ST_Multi(gi)) AS gi_wkt, t1_crosses_t2, `+
			`ST_Dimension(gi) AS gi_dim FROM (SELECT t1."gid" AS t1id, t2."gid" AS t2id, `+
			`t1."the_geom" AS g1, t2."the_geom" AS g2, ST_Intersection(t1."the_geom", t2."the_geom") AS gi, `+
			`ST_Crosses(t1."the_geom", t2."the_geom") AS t1_crosses_t2 `+
			`FROM "n_a_i_crosses"."linestrings1" AS t1, "n_a_i_crosses"."linestrings2" AS t2 `+
			`WHERE ST_Intersects(t1."the_geom", t2."the_geom") AND NOT ST_Touches(t1."the_geom", t2."the_geom")`+
			`) AS candidates ORDER BY t1id, t2id`,
		query)
}

func TestMySQLQueriesUseBackticks(t *testing.T) {
	my := &MySQL{Columns: DefaultColumns()}

	for _, query := range []string{
		my.InvalidGeomsQuery("qa", "roads"),
		my.DuplicateGeomsQuery("qa", "roads"),
		my.MultipartGeomsQuery("qa", "roads"),
		my.NullGeomsQuery("qa", "roads"),
		my.IntersectionQuery("qa", "roads", "rivers"),
	} {
		assert.Contains(t, query, "`qa`.`roads`")
		assert.NotContains(t, query, `"`)
	}
	assert.Contains(t, my.IntersectionQuery("qa", "roads", "rivers"), "ST_AsText(gi) AS gi_wkt")
	assert.Contains(t, my.TablesQuery(), "table_schema = ?")
}
