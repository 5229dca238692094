package archive

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"regsho/internal/model"
)

const (
	// Delimiter separates fields in Reg SHO text files.
	Delimiter = '|'

	minFields  = 8
	dateLayout = "20060102"

	// ctxCheckEvery is how many rows are parsed between context checks.
	ctxCheckEvery = 4096
)

// ParseRecord converts one split line into a Record. ok is false when the row
// has fewer than 8 fields, an invalid date or a non-numeric size or price.
func ParseRecord(fields []string) (rec model.Record, ok bool) {
	if len(fields) < minFields {
		return model.Record{}, false
	}
	day, err := time.Parse(dateLayout, fields[2])
	if err != nil {
		return model.Record{}, false
	}
	size, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
	if err != nil {
		return model.Record{}, false
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(fields[6]), 64)
	if err != nil {
		return model.Record{}, false
	}
	return model.Record{
		MarketCenter:  fields[0],
		Symbol:        fields[1],
		TradeDate:     day,
		Time:          fields[3],
		ShortType:     fields[4],
		Size:          size,
		Price:         price,
		LinkIndicator: fields[7],
	}, true
}

// ParseRecords streams pipe-delimited lines from r, drops the first line as the
// header and calls fn for every valid record. Invalid rows are counted in
// skipped. Quotes are read leniently, so the returned error is an I/O error or
// ctx.Err(); malformed rows never fail the stream.
func ParseRecords(ctx context.Context, r io.Reader, fn func(model.Record)) (rows, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header := true
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return rows, skipped, err
			}
		}
		fields, err := cr.Read()
		if err == io.EOF {
			return rows, skipped, nil
		}
		if err != nil {
			return rows, skipped, err
		}
		if header {
			header = false
			continue
		}
		rec, ok := ParseRecord(fields)
		if !ok {
			skipped++
			continue
		}
		rows++
		fn(rec)
	}
}
