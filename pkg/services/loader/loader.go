package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/sales-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"
)

type Options struct {
	// Delimiter defaults to a comma.
	Delimiter rune
}

// Load reads src into a table. A missing or unreadable source yields a
// *domain.LoadError; malformed values never fail the load.
func Load(ctx context.Context, src Source, opts Options) (*domain.Table, error) {
	if _, err := src.Fingerprint(ctx); err != nil {
		return nil, &domain.LoadError{Source: src.Name(), Err: err}
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &domain.LoadError{Source: src.Name(), Err: err}
	}
	defer rc.Close()

	table, err := Parse(ctx, rc, opts)
	if err != nil {
		return nil, &domain.LoadError{Source: src.Name(), Err: err}
	}
	table.LoadedAt = time.Now().UTC()

	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("source", src.Name()).
		Int("rows", table.Len()).
		Int("columns", len(table.Header)).
		Msg("dataset loaded")
	for col, n := range table.ParseWarnings {
		logger.Warn().
			Str("source", src.Name()).
			Str("column", string(col)).
			Int("values", n).
			Msg("unparseable values replaced with defaults")
	}

	return table, nil
}

// Parse reads delimited text with a header row into a table.
func Parse(ctx context.Context, r io.Reader, opts Options) (*domain.Table, error) {
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	// The same bytes split on another delimiter are different content.
	hasher := xxh3.New()
	_, _ = hasher.WriteString(string(delimiter))
	reader := csv.NewReader(io.TeeReader(r, hasher))
	reader.FieldsPerRecord = -1
	reader.Comma = delimiter

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := &domain.Table{
		Header:        header,
		Records:       make([]*domain.Record, 0),
		Present:       mapColumns(header),
		ParseWarnings: make(map[domain.Column]int),
	}

	logger := zerolog.Ctx(ctx)
	for row := 1; ; row++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		cells = fitWidth(cells, len(header))
		rec, warnings := buildRecord(row, cells, table.Present)
		for _, w := range warnings {
			table.ParseWarnings[w.Column]++
			logger.Debug().Msg(w.String())
		}
		table.Records = append(table.Records, rec)
	}

	table.Fingerprint = strconv.FormatUint(hasher.Sum64(), 16)

	return table, nil
}

func mapColumns(header []string) map[domain.Column]int {
	present := make(map[domain.Column]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		for _, col := range domain.Columns {
			if _, seen := present[col]; seen {
				continue
			}
			if strings.EqualFold(name, string(col)) {
				present[col] = i
			}
		}
	}
	return present
}

func fitWidth(cells []string, width int) []string {
	if len(cells) == width {
		return cells
	}
	if len(cells) > width {
		return cells[:width]
	}
	out := make([]string, width)
	copy(out, cells)
	return out
}

func buildRecord(row int, cells []string, present map[domain.Column]int) (*domain.Record, []domain.ParseWarning) {
	rec := &domain.Record{Raw: cells}
	var warnings []domain.ParseWarning

	cell := func(col domain.Column) (string, bool) {
		i, ok := present[col]
		if !ok {
			return "", false
		}
		return cells[i], true
	}
	warn := func(col domain.Column, value string) {
		warnings = append(warnings, domain.ParseWarning{Row: row, Column: col, Value: value})
	}

	rec.OrderID, _ = cell(domain.ColumnOrderID)
	rec.Region, _ = cell(domain.ColumnRegion)
	rec.Category, _ = cell(domain.ColumnCategory)
	rec.ShipMode, _ = cell(domain.ColumnShipMode)
	rec.ProductName, _ = cell(domain.ColumnProductName)

	for _, col := range []domain.Column{domain.ColumnOrderDate, domain.ColumnShipDate} {
		v, ok := cell(col)
		if !ok {
			continue
		}
		t, valid := parseDate(v)
		if !valid {
			warn(col, v)
		}
		if col == domain.ColumnOrderDate {
			rec.OrderDate = t
		} else {
			rec.ShipDate = t
		}
	}

	if v, ok := cell(domain.ColumnSales); ok {
		sales, valid := parseSales(v)
		if !valid {
			warn(domain.ColumnSales, v)
		}
		rec.Sales = sales
	}

	return rec, warnings
}
