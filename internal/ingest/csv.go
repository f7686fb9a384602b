// Package ingest normalizes bank and card CSV exports into ledger
// transactions and stores them.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dvloznov/finance-advisor/internal/categorize"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Header aliases, matched case-insensitively, first alias present wins.
var (
	dateColumns     = []string{"date", "posteddate", "posted date"}
	amountColumns   = []string{"amount", "transaction", "transaction amount"}
	merchantColumns = []string{"merchant", "description", "name"}
	categoryColumns = []string{"category", "type"}
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006/01/02",
	"Jan 2, 2006",
	"02 Jan 2006",
}

var (
	errNoDate   = errors.New("missing date")
	errNoAmount = errors.New("missing amount")
)

// Normalized is the outcome of reading one CSV file.
type Normalized struct {
	Transactions []domain.Transaction
	Skipped      int
}

type columns struct {
	date, amount, merchant, category int
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return i
			}
		}
	}
	return -1
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// NormalizeCSV reads a CSV with a header row. Credit card exports list
// purchases as positive amounts, so their signs are flipped to keep
// expenses negative. Rows without a parseable date or amount are skipped.
func NormalizeCSV(r io.Reader, householdID, accountID string, kind domain.AccountKind) (Normalized, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Normalized{}, &domain.ValidationError{Field: "file", Reason: "CSV is empty"}
	}
	if err != nil {
		return Normalized{}, fmt.Errorf("NormalizeCSV: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols := columns{
		date:     findColumn(header, dateColumns),
		amount:   findColumn(header, amountColumns),
		merchant: findColumn(header, merchantColumns),
		category: findColumn(header, categoryColumns),
	}
	if cols.date < 0 || cols.amount < 0 {
		return Normalized{}, &domain.ValidationError{Field: "file", Reason: "CSV needs a date and an amount column"}
	}

	var out Normalized
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Normalized{}, fmt.Errorf("NormalizeCSV: read row: %w", err)
		}

		tx, err := normalizeRow(record, cols, kind)
		if err != nil {
			out.Skipped++
			continue
		}
		tx.ID = uuid.New().String()
		tx.HouseholdID = householdID
		tx.AccountID = accountID
		out.Transactions = append(out.Transactions, tx)
	}
	return out, nil
}

func normalizeRow(record []string, cols columns, kind domain.AccountKind) (domain.Transaction, error) {
	rawDate := field(record, cols.date)
	if rawDate == "" {
		return domain.Transaction{}, errNoDate
	}
	postedAt, err := ParseDate(rawDate)
	if err != nil {
		return domain.Transaction{}, err
	}

	rawAmount := field(record, cols.amount)
	if rawAmount == "" {
		return domain.Transaction{}, errNoAmount
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return domain.Transaction{}, err
	}
	if kind == domain.AccountCreditCard {
		amount = amount.Neg()
	}
	value, _ := amount.Float64()

	merchant := field(record, cols.merchant)
	return domain.Transaction{
		PostedAt: postedAt,
		Amount:   value,
		Currency: domain.DefaultCurrency,
		Merchant: merchant,
		Category: categorize.Resolve(field(record, cols.category), merchant),
	}, nil
}

// ParseAmount keeps digits, sign and decimal point. Parenthesized values
// such as "(12.50)" are negative.
func ParseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	negative := strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")")

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, trimmed)
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Zero, errNoAmount
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if negative {
		d = d.Abs().Neg()
	}
	return d.Round(2), nil
}

// ParseDate accepts ISO, US and a few long-form layouts.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q: unsupported format", raw)
}
