package bigquery

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	moneyScale = 2
	rateScale  = 6
)

// numeric converts a float to a NUMERIC value rounded to places decimals.
func numeric(v float64, places int32) *big.Rat {
	return decimal.NewFromFloat(v).Round(places).Rat()
}

func fromNumeric(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

// BigQuery has no FLOAT32 column type; vectors are stored as REPEATED FLOAT64.
func vector64(v []float32) []float64 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func vector32(v []float64) []float32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullBool(b *bool) bigquery.NullBool {
	if b == nil {
		return bigquery.NullBool{}
	}
	return bigquery.NullBool{Bool: *b, Valid: true}
}

func boolPtr(b bigquery.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

func nullDate(t *time.Time) bigquery.NullDate {
	if t == nil {
		return bigquery.NullDate{}
	}
	return bigquery.NullDate{Date: civil.DateOf(*t), Valid: true}
}

func datePtr(d bigquery.NullDate) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Date.In(time.UTC)
	return &t
}

func nullTimestamp(t *time.Time) bigquery.NullTimestamp {
	if t == nil {
		return bigquery.NullTimestamp{}
	}
	return bigquery.NullTimestamp{Timestamp: *t, Valid: true}
}

func timestampPtr(ts bigquery.NullTimestamp) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Timestamp
	return &t
}

// jsonColumn encodes v for a JSON column. Empty values are stored as NULL.
func jsonColumn(v interface{}) (bigquery.NullJSON, error) {
	switch x := v.(type) {
	case nil:
		return bigquery.NullJSON{}, nil
	case map[string]interface{}:
		if len(x) == 0 {
			return bigquery.NullJSON{}, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return bigquery.NullJSON{}, fmt.Errorf("encoding json column: %w", err)
	}
	if string(b) == "null" || string(b) == "[]" {
		return bigquery.NullJSON{}, nil
	}
	return bigquery.NullJSON{JSONVal: string(b), Valid: true}, nil
}

func decodeJSONColumn(col bigquery.NullJSON, dst interface{}) error {
	if !col.Valid || strings.TrimSpace(col.JSONVal) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.JSONVal), dst); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}
	return nil
}
