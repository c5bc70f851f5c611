package catalog

import "strings"

// Header spellings accepted for each column, lower-cased.
var (
	nameAliases     = []string{"name", "product", "item", "product name", "nome", "produto"}
	priceAliases    = []string{"price", "mrp", "rate", "preço", "preco", "valor"}
	categoryAliases = []string{"category", "categoria", "group", "section"}
	activeAliases   = []string{"active", "enabled", "available", "ativo"}
)

// columns holds cell indexes; -1 means the column is absent.
type columns struct {
	name     int
	price    int
	category int
	active   int
}

// detectHeader returns the first row carrying both a name and a price column.
func detectHeader(rows [][]string) (columns, int, bool) {
	for rowIdx, row := range rows {
		cols := columns{
			name:     find(row, nameAliases),
			price:    find(row, priceAliases),
			category: find(row, categoryAliases),
			active:   find(row, activeAliases),
		}

		if cols.name >= 0 && cols.price >= 0 {
			return cols, rowIdx, true
		}
	}

	return columns{}, 0, false
}

func find(row []string, aliases []string) int {
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, alias := range aliases {
			if name == alias {
				return i
			}
		}
	}

	return -1
}
