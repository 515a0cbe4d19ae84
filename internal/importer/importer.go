package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	catalogsvc "storefront/internal/service/catalog"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, kind domain.Kind, in catalogsvc.UpsertInput) (*domain.CatalogItem, error)
}

// CSVImporter reads catalog exports and upserts products and accessories.
//
// Expected header: kind,id,name,price,category,brand,stock,isOffer,isBestSeller with
// optional description, imageUrl and compatibleWith columns. A row with an empty kind
// and name continues the previous item and only contributes compatibleWith values.
type CSVImporter struct {
	reader *csv.Reader
	writer CatalogWriter
	logger *zap.Logger
}

func NewCSVImporter(r io.Reader, writer CatalogWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader: csvr,
		writer: writer,
		logger: logging.OrNop(logger),
	}
}

type csvRow struct {
	line       int
	kind       string
	in         catalogsvc.UpsertInput
	priceRaw   string
	stockRaw   string
	compatible []string
}

// Run parses CSV rows and upserts one catalog item per leading row. It returns counts
// per kind.
func (i *CSVImporter) Run(ctx context.Context) (map[domain.Kind]int, error) {
	imported := map[domain.Kind]int{}
	headers, err := i.reader.Read()
	if err != nil {
		return imported, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"kind", "name", "price"} {
		if _, ok := index[required]; !ok {
			return imported, fmt.Errorf("missing %q column", required)
		}
	}

	var current *csvRow
	flush := func() error {
		if current == nil {
			return nil
		}
		kind, err := i.save(ctx, current)
		if err != nil {
			return err
		}
		imported[kind]++
		return nil
	}

	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index, line)
		if row == nil {
			continue
		}
		if row.kind == "" && row.in.Name == "" {
			if current != nil {
				current.compatible = append(current.compatible, row.compatible...)
			}
			continue
		}
		if err := flush(); err != nil {
			return imported, err
		}
		current = row
	}
	if err := flush(); err != nil {
		return imported, err
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) (domain.Kind, error) {
	kind, err := domain.ParseKind(row.kind)
	if err != nil {
		return "", fmt.Errorf("line %d: %w", row.line, err)
	}
	if row.in.ID != "" {
		if _, err := uuid.Parse(row.in.ID); err != nil {
			return "", fmt.Errorf("line %d: invalid id %q", row.line, row.in.ID)
		}
	}
	price, err := decimal.NewFromString(row.priceRaw)
	if err != nil {
		return "", fmt.Errorf("line %d: invalid price %q", row.line, row.priceRaw)
	}
	row.in.Price = price
	if row.stockRaw != "" {
		stock, err := strconv.Atoi(row.stockRaw)
		if err != nil {
			return "", fmt.Errorf("line %d: invalid stock %q", row.line, row.stockRaw)
		}
		row.in.Stock = stock
	}
	row.in.CompatibleWith = row.compatible

	item, err := i.writer.Upsert(ctx, kind, row.in)
	if err != nil {
		return "", fmt.Errorf("upsert %s %q: %w", kind, row.in.Name, err)
	}
	i.logger.Debug("imported catalog item", zap.String("kind", string(kind)), zap.String("id", item.ID))
	return kind, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) *csvRow {
	row := &csvRow{
		line:     line,
		kind:     pick(record, index, "kind"),
		priceRaw: pick(record, index, "price"),
		stockRaw: pick(record, index, "stock"),
		in: catalogsvc.UpsertInput{
			ID:           pick(record, index, "id"),
			Name:         pick(record, index, "name"),
			Description:  pick(record, index, "description"),
			Category:     pick(record, index, "category"),
			Brand:        pick(record, index, "brand"),
			ImageURL:     pick(record, index, "imageUrl"),
			IsOffer:      pickBool(record, index, "isOffer"),
			IsBestSeller: pickBool(record, index, "isBestSeller"),
		},
	}
	for _, c := range strings.Split(pick(record, index, "compatibleWith"), ";") {
		if c = strings.TrimSpace(c); c != "" {
			row.compatible = append(row.compatible, c)
		}
	}
	if row.kind == "" && row.in.Name == "" && len(row.compatible) == 0 {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func pickBool(record []string, index map[string]int, key string) bool {
	v, _ := strconv.ParseBool(pick(record, index, key))
	return v
}
