package schema

import (
	"testing"
)

func TestLoadDataModel(t *testing.T) {
	s, err := Load(DataModel())
	if err != nil {
		t.Fatalf("Failed to load data model: %v", err)
	}

	wantOrder := []string{TableUsers, TableContents, TableLinks, TablePromotions, TableViews}
	if len(s.TableOrder) != len(wantOrder) {
		t.Fatalf("TableOrder = %v, want %v", s.TableOrder, wantOrder)
	}
	for i, name := range wantOrder {
		if s.TableOrder[i] != name {
			t.Errorf("TableOrder[%d] = %q, want %q", i, s.TableOrder[i], name)
		}
	}

	users := s.MustTable(TableUsers)
	if got := users.PrimaryKey; len(got) != 1 || got[0] != "userId" {
		t.Errorf("users primary key = %v, want [userId]", got)
	}
	if users.Updated != "updated" {
		t.Errorf("users updated column = %q, want updated", users.Updated)
	}
	if len(users.Uniques) != 1 || users.Uniques[0][0] != "userName" {
		t.Errorf("users uniques = %v, want [[userName]]", users.Uniques)
	}

	groups, ok := users.Column("groups")
	if !ok {
		t.Fatal("users has no groups column")
	}
	if !groups.IsArray() {
		t.Error("groups should be an array column")
	}
	if groups.Type.SQLType != "text" {
		t.Errorf("groups SQL type = %q, want text", groups.Type.SQLType)
	}

	userName, _ := users.Column("userName")
	if userName.Type.SQLType != "varchar(72)" {
		t.Errorf("userName SQL type = %q, want varchar(72)", userName.Type.SQLType)
	}
	if userName.Type.Max == nil || *userName.Type.Max != 72 {
		t.Errorf("userName max = %v, want 72", userName.Type.Max)
	}

	contents := s.MustTable(TableContents)
	contentType, _ := contents.Column("contentType")
	if len(contentType.Type.Enum) != 5 {
		t.Errorf("contentType enum = %v, want 5 values", contentType.Type.Enum)
	}
}

func TestLoadSelfReference(t *testing.T) {
	s, err := Load(DataModel())
	if err != nil {
		t.Fatalf("Failed to load data model: %v", err)
	}

	links := s.MustTable(TableLinks)
	var found bool
	for _, fk := range links.ForeignKeys {
		if fk.RefTable == TableLinks {
			found = true
			if fk.Columns[0] != "prevLink" {
				t.Errorf("self-reference columns = %v, want [prevLink]", fk.Columns)
			}
		}
	}
	if !found {
		t.Error("links should carry a self-referencing foreign key")
	}
}

func TestLoadParameterizedTypesShared(t *testing.T) {
	s, err := Load(DataModel())
	if err != nil {
		t.Fatalf("Failed to load data model: %v", err)
	}
	if _, ok := s.Types["varchar(72)"]; !ok {
		t.Error("synthesized varchar(72) should be cached in Types")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  RawModel
	}{
		{
			name: "duplicate scalar type",
			raw: RawModel{
				ScalarTypes: []RawScalar{
					{Name: "text", SQLType: "text"},
					{Name: "text", SQLType: "text"},
				},
			},
		},
		{
			name: "alias base not defined",
			raw: RawModel{
				TypeAliases: []RawAlias{{Name: "tag", Base: "missing"}},
			},
		},
		{
			name: "column type not defined",
			raw: RawModel{
				TupleTypes: []RawTuple{{Name: "row", Columns: []RawColumn{
					{Name: "a", Type: "nope"},
				}}},
			},
		},
		{
			name: "row type not defined",
			raw: RawModel{
				Tables: []RawTable{{Name: "t", RowType: "missing"}},
			},
		},
		{
			name: "primary key column missing",
			raw: RawModel{
				ScalarTypes: []RawScalar{{Name: "text", SQLType: "text"}},
				TupleTypes: []RawTuple{{Name: "row", Columns: []RawColumn{
					{Name: "a", Type: "text"},
				}}},
				Tables: []RawTable{{Name: "t", RowType: "row", PrimaryKey: []string{"b"}}},
			},
		},
		{
			name: "forward foreign key reference",
			raw: RawModel{
				ScalarTypes: []RawScalar{{Name: "text", SQLType: "text"}},
				TupleTypes: []RawTuple{{Name: "row", Columns: []RawColumn{
					{Name: "a", Type: "text"},
				}}},
				Tables: []RawTable{
					{Name: "first", RowType: "row", PrimaryKey: []string{"a"},
						ForeignKeys: []RawForeignKey{{RefTable: "second", Columns: []string{"a"}}}},
					{Name: "second", RowType: "row", PrimaryKey: []string{"a"}},
				},
			},
		},
		{
			name: "updated column missing",
			raw: RawModel{
				ScalarTypes: []RawScalar{{Name: "text", SQLType: "text"}},
				TupleTypes: []RawTuple{{Name: "row", Columns: []RawColumn{
					{Name: "a", Type: "text"},
				}}},
				Tables: []RawTable{{Name: "t", RowType: "row", PrimaryKey: []string{"a"}, Updated: "modified"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.raw)
			if err == nil {
				t.Fatal("Load should have failed")
			}
			if _, ok := err.(*Error); !ok {
				t.Errorf("error type = %T, want *Error", err)
			}
		})
	}
}

func TestAliasCarriesMultiValued(t *testing.T) {
	raw := RawModel{
		ScalarTypes: []RawScalar{{Name: "text", SQLType: "text"}},
		TypeAliases: []RawAlias{
			{Name: "tags", Base: "text", MultiValued: true},
			{Name: "labels", Base: "tags"},
		},
	}
	s, err := Load(raw)
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}
	if !s.Types["labels"].MultiValued {
		t.Error("alias of a multi-valued alias should stay multi-valued")
	}
}

func TestParseReferenceAction(t *testing.T) {
	tests := []struct {
		in   string
		want ReferenceAction
	}{
		{"", NoAction},
		{"CASCADE", Cascade},
		{"cascade", Cascade},
		{"RESTRICT", Restrict},
		{"SET NULL", SetNull},
		{"SET DEFAULT", SetDefault},
		{"bogus", NoAction},
	}
	for _, tt := range tests {
		if got := parseReferenceAction(tt.in); got != tt.want {
			t.Errorf("parseReferenceAction(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
