// Package pricebook reads the desired-price sheet and normalizes its
// rows into validated regional prices.
//
// Individual bad rows are skipped with a diagnostic; a sheet missing
// its required columns, or left with zero valid rows, is rejected as a
// whole since that signals a configuration mistake rather than noise.
package pricebook

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"playprice/core/money"
	"playprice/core/region"
	"playprice/internal/errors"
	"playprice/internal/logging"
)

// Required sheet columns. Extra columns are ignored.
const (
	ColumnRegion   = "Countries or Regions"
	ColumnCurrency = "Currency Code"
	ColumnPrice    = "Price"
)

// RegionalPrice is one region's desired price, normalized to the
// 2-letter billing-region code and fixed-point money.
type RegionalPrice struct {
	RegionCode string
	Price      money.Money
}

// Load reads and normalizes the price sheet at path.
func Load(path string) ([]*RegionalPrice, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Inputf("CSV file not found: %s", path)
		}
		return nil, errors.Wrap(errors.TypeInput, "cannot open CSV file", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse normalizes price rows from CSV data. Row numbers in
// diagnostics are 1-based with the header as row 1.
func Parse(r io.Reader) ([]*RegionalPrice, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Parsing("cannot read CSV header", err)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var prices []*RegionalPrice
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Parsing("cannot read CSV row", err)
		}

		if rp, ok := normalizeRow(record, columns, rowNum); ok {
			prices = append(prices, rp)
		}
	}

	if len(prices) == 0 {
		return nil, errors.Input("no valid pricing rows found in CSV")
	}
	return prices, nil
}

// columnIndex locates the required columns within a header row.
type columnIndex struct {
	region   int
	currency int
	price    int
}

func resolveColumns(header []string) (columnIndex, error) {
	idx := columnIndex{region: -1, currency: -1, price: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case ColumnRegion:
			idx.region = i
		case ColumnCurrency:
			idx.currency = i
		case ColumnPrice:
			idx.price = i
		}
	}

	var missing []string
	if idx.region < 0 {
		missing = append(missing, ColumnRegion)
	}
	if idx.currency < 0 {
		missing = append(missing, ColumnCurrency)
	}
	if idx.price < 0 {
		missing = append(missing, ColumnPrice)
	}
	if len(missing) > 0 {
		return idx, errors.Inputf(
			"CSV is missing required columns: %s (present: %s)",
			strings.Join(missing, ", "), strings.Join(header, ", "))
	}
	return idx, nil
}

func normalizeRow(record []string, columns columnIndex, rowNum int) (*RegionalPrice, bool) {
	token := strings.TrimSpace(field(record, columns.region))
	priceText := strings.TrimSpace(field(record, columns.price))
	if token == "" || priceText == "" {
		logging.Debug("skipping incomplete row", zap.Int("row", rowNum))
		return nil, false
	}

	amount, err := decimal.NewFromString(priceText)
	if err != nil {
		logging.Warn("invalid price format, skipping row",
			zap.Int("row", rowNum), zap.String("price", priceText))
		return nil, false
	}
	if amount.IsNegative() {
		logging.Warn("negative price, skipping row",
			zap.Int("row", rowNum), zap.String("price", priceText))
		return nil, false
	}

	currency := strings.ToUpper(strings.TrimSpace(field(record, columns.currency)))
	if len(currency) != 3 {
		logging.Warn("currency code should be 3 letters",
			zap.Int("row", rowNum), zap.String("currency", currency))
	}

	iso2, ok := region.ToISO2(token)
	if !ok {
		logging.Warn("unresolvable region token, skipping row",
			zap.Int("row", rowNum), zap.String("region", token))
		return nil, false
	}

	price, err := money.FromDecimal(amount, currency)
	if err != nil {
		logging.Warn("cannot convert price, skipping row",
			zap.Int("row", rowNum), zap.String("price", priceText))
		return nil, false
	}

	return &RegionalPrice{RegionCode: iso2, Price: price}, true
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
