package schema

// Table names of the built-in data model.
const (
	TableUsers      = "users"
	TableContents   = "contents"
	TableLinks      = "links"
	TablePromotions = "promotions"
	TableViews      = "views"
)

// DataModel returns the raw model for the amplification ledger: users with
// credit balances, shared contents, the link forest, promotions, and view
// records. Column names keep the camelCase convention of the persistence
// layer, so the statement generator quotes them.
func DataModel() RawModel {
	return RawModel{
		ScalarTypes: []RawScalar{
			{Name: "uuid", SQLType: "uuid"},
			{Name: "integer", SQLType: "integer"},
			{Name: "text", SQLType: "text"},
			{Name: "boolean", SQLType: "boolean"},
			{Name: "timestamp", SQLType: "timestamptz"},
			{Name: "contentType", SQLType: "text", Enum: []string{"post", "url", "image", "video", "audio"}},
		},
		TypeAliases: []RawAlias{
			{Name: "userId", Base: "uuid"},
			{Name: "contentId", Base: "uuid"},
			{Name: "linkId", Base: "uuid"},
			{Name: "tags", Base: "text", MultiValued: true},
		},
		TupleTypes: []RawTuple{
			{Name: "userRow", Columns: []RawColumn{
				{Name: "userId", Type: "userId", NotNull: true},
				{Name: "userName", Type: "varchar(72)", NotNull: true},
				{Name: "email", Type: "text"},
				{Name: "credits", Type: "integer", NotNull: true, Default: "0"},
				{Name: "groups", Type: "tags"},
				{Name: "created", Type: "timestamp", NotNull: true, Default: "now()"},
				{Name: "updated", Type: "timestamp", NotNull: true, Default: "now()"},
			}},
			{Name: "contentRow", Columns: []RawColumn{
				{Name: "contentId", Type: "contentId", NotNull: true},
				{Name: "userId", Type: "userId", NotNull: true},
				{Name: "contentType", Type: "contentType", NotNull: true},
				{Name: "content", Type: "text"},
				{Name: "title", Type: "varchar(254)"},
				{Name: "tags", Type: "tags"},
				{Name: "published", Type: "timestamp"},
				{Name: "created", Type: "timestamp", NotNull: true, Default: "now()"},
				{Name: "updated", Type: "timestamp", NotNull: true, Default: "now()"},
			}},
			{Name: "linkRow", Columns: []RawColumn{
				{Name: "linkId", Type: "linkId", NotNull: true},
				{Name: "userId", Type: "userId", NotNull: true},
				{Name: "contentId", Type: "contentId", NotNull: true},
				{Name: "prevLink", Type: "linkId"},
				{Name: "amount", Type: "integer", NotNull: true, Default: "0"},
				{Name: "tags", Type: "tags"},
				{Name: "comment", Type: "text"},
				{Name: "created", Type: "timestamp", NotNull: true, Default: "now()"},
				{Name: "updated", Type: "timestamp", NotNull: true, Default: "now()"},
			}},
			{Name: "promotionRow", Columns: []RawColumn{
				{Name: "linkId", Type: "linkId", NotNull: true},
				{Name: "userId", Type: "userId", NotNull: true},
				{Name: "delivered", Type: "timestamp"},
				{Name: "created", Type: "timestamp", NotNull: true, Default: "now()"},
			}},
			{Name: "viewRow", Columns: []RawColumn{
				{Name: "userId", Type: "userId", NotNull: true},
				{Name: "linkId", Type: "linkId", NotNull: true},
				{Name: "created", Type: "timestamp", NotNull: true, Default: "now()"},
			}},
		},
		Tables: []RawTable{
			{
				Name:       TableUsers,
				RowType:    "userRow",
				PrimaryKey: []string{"userId"},
				Updated:    "updated",
				Uniques:    [][]string{{"userName"}},
			},
			{
				Name:       TableContents,
				RowType:    "contentRow",
				PrimaryKey: []string{"contentId"},
				Updated:    "updated",
				ForeignKeys: []RawForeignKey{
					{RefTable: TableUsers, Columns: []string{"userId"}},
				},
			},
			{
				Name:       TableLinks,
				RowType:    "linkRow",
				PrimaryKey: []string{"linkId"},
				Updated:    "updated",
				ForeignKeys: []RawForeignKey{
					{RefTable: TableUsers, Columns: []string{"userId"}},
					{RefTable: TableContents, Columns: []string{"contentId"}},
					{RefTable: TableLinks, Columns: []string{"prevLink"}},
				},
			},
			{
				Name:       TablePromotions,
				RowType:    "promotionRow",
				PrimaryKey: []string{"linkId", "userId"},
				ForeignKeys: []RawForeignKey{
					{RefTable: TableLinks, Columns: []string{"linkId"}, OnDelete: "CASCADE"},
					{RefTable: TableUsers, Columns: []string{"userId"}},
				},
			},
			{
				Name:       TableViews,
				RowType:    "viewRow",
				PrimaryKey: []string{"userId", "linkId"},
				ForeignKeys: []RawForeignKey{
					{RefTable: TableUsers, Columns: []string{"userId"}},
					{RefTable: TableLinks, Columns: []string{"linkId"}, OnDelete: "CASCADE"},
				},
			},
		},
	}
}
