package sheets

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/babyregistry/registry/internal/domain"
	"github.com/babyregistry/registry/internal/logger"
)

// Claim columns of the registry sheet
const (
	colItemID       = 0
	colProduct      = 1
	colClaimer      = 8
	colEmail        = 9
	colVerified     = 10
	colLastModified = 11
	rowWidth        = 12
)

// DefaultClaimsRange is the data area of the API tab, below its header row
const DefaultClaimsRange = "API!A2:L"

// DefaultLogRange is the audit tab that receives one row per sync pass
const DefaultLogRange = "Logs!A:H"

var rangeStartPattern = regexp.MustCompile(`^(?:(.+)!)?[A-Za-z]+(\d+)?`)

// ClaimStoreConfig holds the ranges the claim store works on
type ClaimStoreConfig struct {
	ClaimsRange string
	LogRange    string
}

// ClaimStore reads and writes the claim columns of the registry sheet
type ClaimStore struct {
	client   *Client
	config   ClaimStoreConfig
	sheet    string
	firstRow int
}

// NewClaimStore creates a new sheet claim store
func NewClaimStore(client *Client, config ClaimStoreConfig) *ClaimStore {
	if config.ClaimsRange == "" {
		config.ClaimsRange = DefaultClaimsRange
	}
	if config.LogRange == "" {
		config.LogRange = DefaultLogRange
	}

	sheet, firstRow := parseRangeStart(config.ClaimsRange)
	return &ClaimStore{
		client:   client,
		config:   config,
		sheet:    sheet,
		firstRow: firstRow,
	}
}

// parseRangeStart returns the tab name and first row number of an A1 range
func parseRangeStart(a1 string) (string, int) {
	m := rangeStartPattern.FindStringSubmatch(a1)
	if m == nil {
		return "", 1
	}
	row := 1
	if m[2] != "" {
		if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
			row = n
		}
	}
	return m[1], row
}

// ReadClaims returns every row with an item id, keyed by item id.
// now is the lastModified default for rows without a usable timestamp.
func (s *ClaimStore) ReadClaims(ctx context.Context, now int64) (map[string]domain.ClaimRecord, error) {
	vr, err := s.client.ReadRange(ctx, s.config.ClaimsRange)
	if err != nil {
		return nil, &domain.FetchError{Store: domain.SourceSheet, Err: err}
	}
	if vr.Values == nil {
		return nil, &domain.FetchError{Store: domain.SourceSheet, Err: errors.New("no values returned for " + s.config.ClaimsRange)}
	}

	// A duplicated item id resolves to its last row
	claims := make(map[string]domain.ClaimRecord, len(vr.Values))
	for _, row := range vr.Values {
		itemID := cell(row, colItemID)
		if itemID == "" {
			continue
		}
		claims[itemID] = rowToClaim(itemID, row, now)
	}
	return claims, nil
}

func rowToClaim(itemID string, row []string, now int64) domain.ClaimRecord {
	lastModified, ok := domain.ParseMillis(cell(row, colLastModified))
	if !ok {
		lastModified = now
	}
	return domain.ClaimRecord{
		ItemID:       itemID,
		Claimer:      cell(row, colClaimer),
		Email:        cell(row, colEmail),
		Verified:     cell(row, colVerified) == "TRUE",
		Product:      cell(row, colProduct),
		LastModified: lastModified,
		Source:       domain.SourceSheet,
	}
}

// rowIndex locates item rows as of one read. It lives only for a single WriteClaims call.
type rowIndex struct {
	rows map[string]indexedRow
}

type indexedRow struct {
	number int
	cells  []string
}

func (s *ClaimStore) buildRowIndex(values [][]string) rowIndex {
	idx := rowIndex{rows: make(map[string]indexedRow, len(values))}
	for i, row := range values {
		itemID := cell(row, colItemID)
		if itemID == "" {
			continue
		}
		// Duplicate ids resolve to the last row, as in ReadClaims
		idx.rows[itemID] = indexedRow{number: s.firstRow + i, cells: row}
	}
	return idx
}

// WriteClaims writes records to their existing rows and appends rows for unknown items.
// It returns the number of records written. Individual row failures are logged and skipped.
func (s *ClaimStore) WriteClaims(ctx context.Context, records []domain.ClaimRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	// Row numbers shift when the sheet is edited, so they are looked up fresh on every call
	vr, err := s.client.ReadRange(ctx, s.config.ClaimsRange)
	if err != nil {
		return 0, &domain.WriteError{Store: domain.SourceSheet, Err: err}
	}
	idx := s.buildRowIndex(vr.Values)

	written := 0
	var appends []domain.ClaimRecord
	for _, record := range records {
		existing, ok := idx.rows[record.ItemID]
		if !ok {
			appends = append(appends, record)
			continue
		}

		a1 := rowRange(s.sheet, existing.number)
		if err := s.client.UpdateRange(ctx, a1, [][]string{claimRow(record, existing.cells)}); err != nil {
			if ctx.Err() != nil {
				return written, &domain.WriteError{Store: domain.SourceSheet, Err: ctx.Err()}
			}
			logger.ErrorCtx(ctx, &domain.WriteError{Store: domain.SourceSheet, ItemID: record.ItemID, Err: err},
				zap.Int("row", existing.number))
			continue
		}
		written++
	}

	if len(appends) == 0 {
		return written, nil
	}

	rows := make([][]string, 0, len(appends))
	for _, record := range appends {
		rows = append(rows, claimRow(record, nil))
	}
	if err := s.client.AppendRows(ctx, tableRange(s.sheet), rows); err != nil {
		if ctx.Err() != nil {
			return written, &domain.WriteError{Store: domain.SourceSheet, Err: ctx.Err()}
		}
		for _, record := range appends {
			logger.ErrorCtx(ctx, &domain.WriteError{Store: domain.SourceSheet, ItemID: record.ItemID, Err: err})
		}
		return written, nil
	}

	return written + len(appends), nil
}

// claimRow renders a full 12 column row. Columns the sync does not own are carried over from existing.
func claimRow(record domain.ClaimRecord, existing []string) []string {
	row := make([]string, rowWidth)
	copy(row, existing[:min(len(existing), colClaimer)])

	row[colItemID] = record.ItemID
	if row[colProduct] == "" && record.Product != "" {
		row[colProduct] = record.Product
	}
	row[colClaimer] = record.Claimer
	row[colEmail] = record.Email
	row[colVerified] = strings.ToUpper(strconv.FormatBool(record.Verified))
	row[colLastModified] = strconv.FormatInt(record.LastModified, 10)
	return row
}

// AppendLogRow appends one audit row for a sync pass
func (s *ClaimStore) AppendLogRow(ctx context.Context, entry domain.SyncLogEntry) error {
	if err := s.client.AppendRows(ctx, s.config.LogRange, [][]string{entry.Row()}); err != nil {
		return &domain.LogError{Err: err}
	}
	return nil
}

func rowRange(sheet string, row int) string {
	return qualify(sheet, "A"+strconv.Itoa(row)+":L"+strconv.Itoa(row))
}

func tableRange(sheet string) string {
	return qualify(sheet, "A:L")
}

func qualify(sheet string, cells string) string {
	if sheet == "" {
		return cells
	}
	return sheet + "!" + cells
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
