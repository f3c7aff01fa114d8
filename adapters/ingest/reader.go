package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"grestat/domain/core"
	"grestat/domain/survey"
	"grestat/internal/config"
	"grestat/internal/errors"
)

// Reader loads the survey file into a survey.Table. It handles both Excel
// and CSV files; the header row must match the fixed 29-column schema.
type Reader struct {
	path         string
	fileType     string // "xlsx" or "csv"
	missingToken string
}

// NewReader creates a reader for the configured survey file.
func NewReader(cfg config.InputConfig) *Reader {
	ext := strings.ToLower(filepath.Ext(cfg.Path))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &Reader{
		path:         cfg.Path,
		fileType:     fileType,
		missingToken: cfg.MissingToken,
	}
}

// Read loads the survey file into an immutable table.
func (r *Reader) Read() (*survey.Table, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, errors.InputMalformed(fmt.Sprintf("survey file not found: %s", r.path))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.InputMalformed(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, errors.InputMalformed("survey file must have a header row and at least one data row")
	}

	table, err := r.processRows(rows)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", r.path).
		Str("type", r.fileType).
		Int("rows", table.Rows()).
		Msg("loaded survey file")

	return table, nil
}

// readExcelRows reads Sheet1 of an Excel workbook as string cells.
func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Sheet1")
	}
	return rows, nil
}

// readCSVRows reads a CSV file as string cells.
func (r *Reader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // row width checked against the schema below
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	return rows, nil
}

// processRows validates the header against the schema and parses every data
// cell. Trailing cells missing from a row (Excel drops empty tails) are
// treated as missing values; extra cells are an error.
func (r *Reader) processRows(rows [][]string) (*survey.Table, error) {
	if err := r.validateHeader(rows[0]); err != nil {
		return nil, err
	}

	records := make([][]float64, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) > survey.ColumnCount {
			return nil, errors.InputMalformed(fmt.Sprintf(
				"row %d has %d cells, schema has %d columns", i+1, len(row), survey.ColumnCount))
		}

		record := make([]float64, survey.ColumnCount)
		for c := 0; c < survey.ColumnCount; c++ {
			cell := ""
			if c < len(row) {
				cell = strings.TrimSpace(row[c])
			}
			value, err := r.parseCell(survey.ColumnLabels[c], cell)
			if err != nil {
				return nil, errors.InputMalformed(fmt.Sprintf(
					"row %d, column %q: cannot parse %q", i+1, survey.ColumnLabels[c], cell))
			}
			record[c] = value
		}
		records = append(records, record)
	}

	table, err := survey.NewTable(survey.ColumnLabels, records)
	if err != nil {
		return nil, errors.Wrap(err, "building survey table")
	}
	return table, nil
}

// validateHeader checks the header row against the fixed schema, in order.
func (r *Reader) validateHeader(header []string) error {
	if len(header) != survey.ColumnCount {
		return errors.InputMalformed(fmt.Sprintf(
			"header has %d columns, schema requires %d", len(header), survey.ColumnCount))
	}
	for i, cell := range header {
		got := strings.ToLower(strings.TrimSpace(cell))
		want := string(survey.ColumnLabels[i])
		if got != want {
			return errors.InputMalformed(fmt.Sprintf(
				"header column %d is %q, schema requires %q", i+1, cell, want))
		}
	}
	return nil
}

// timestampLayouts covers the submission-time formats survey exports use.
// The timestamp carries no analytical weight; unparseable stamps degrade to
// missing rather than failing the load.
var timestampLayouts = []string{
	time.RFC3339,
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// parseCell converts one trimmed cell into its in-memory value. Empty cells
// and the missing token both mean absent.
func (r *Reader) parseCell(label core.ColumnLabel, cell string) (float64, error) {
	if cell == "" || strings.EqualFold(cell, r.missingToken) {
		return survey.Missing(), nil
	}

	if label == survey.ColTimestamp {
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			return v, nil // Excel serial date
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, cell); err == nil {
				return float64(ts.Unix()), nil
			}
		}
		return survey.Missing(), nil
	}

	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	return value, nil
}
