// Package catalog reads product menus exported from spreadsheets.
package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tillsync/internal/encoding"
)

var ErrNoHeader = errors.New("no header row with name and price columns")

// Item is one menu line ready to become a product.
type Item struct {
	Name     string
	Category string
	Price    decimal.Decimal
	Active   bool
}

// Skipped is a data row that could not be read.
type Skipped struct {
	Row    int
	Reason string
}

type Result struct {
	Items   []Item
	Skipped []Skipped
	Charset string
}

// Parse reads a comma or semicolon separated menu. The header row may appear
// after a few title lines; rows before it are ignored.
func Parse(r io.Reader) (Result, error) {
	utf8r, charset, err := encoding.Decode(r)
	if err != nil {
		return Result{}, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	comma, err := sniffDelimiter(br)
	if err != nil {
		return Result{}, err
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("read csv: %w", err)
	}

	cols, headerIdx, ok := detectHeader(rows)
	if !ok {
		return Result{}, ErrNoHeader
	}

	res := parseRows(cols, rows[headerIdx+1:], headerIdx+1)
	res.Charset = charset

	return res, nil
}

// sniffDelimiter picks ';' when the start of the file has more semicolons
// than commas.
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	head, err := br.Peek(br.Size())
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, fmt.Errorf("peek: %w", err)
	}

	if strings.Count(string(head), ";") > strings.Count(string(head), ",") {
		return ';', nil
	}

	return ',', nil
}

func parseRows(cols columns, rows [][]string, headerRowNum int) Result {
	var res Result

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		if blank(row) {
			continue
		}

		name := cellValue(row, cols.name)
		if name == "" {
			res.Skipped = append(res.Skipped, Skipped{Row: rowNum, Reason: "missing name"})
			continue
		}

		price, err := parsePrice(cellValue(row, cols.price))
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Row: rowNum, Reason: err.Error()})
			continue
		}

		active, ok := parseActive(cellValue(row, cols.active))
		if !ok {
			res.Skipped = append(res.Skipped, Skipped{Row: rowNum, Reason: "invalid active flag"})
			continue
		}

		res.Items = append(res.Items, Item{
			Name:     name,
			Category: cellValue(row, cols.category),
			Price:    price,
			Active:   active,
		})
	}

	return res
}

func parseActive(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "", "yes", "y", "true", "1", "sim":
		return true, true
	case "no", "n", "false", "0", "não", "nao":
		return false, true
	}

	return false, false
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
