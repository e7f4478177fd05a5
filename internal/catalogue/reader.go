package catalogue

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TableReader turns a tabular source into rows of cells. The first row is
// the header.
type TableReader interface {
	ReadTable(r io.Reader) ([][]string, error)
}

// Readers maps a lowercase file extension to its reader
type Readers map[string]TableReader

// DefaultReaders handles .csv and .xlsx catalogues
func DefaultReaders() Readers {
	return Readers{
		".csv":  CSVReader{},
		".xlsx": XLSXReader{Sheet: DefaultSheet},
	}
}

// For returns the reader for path's extension. A missing reader is reported
// with the formats that are available.
func (rs Readers) For(path string) (TableReader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if r, ok := rs[ext]; ok && r != nil {
		return r, nil
	}

	known := make([]string, 0, len(rs))
	for k := range rs {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, &LoadError{
		Source: path,
		Err:    fmt.Errorf("%w for %q files; convert the catalogue to one of: %s", ErrReaderUnavailable, ext, strings.Join(known, ", ")),
	}
}

// CSVReader reads comma separated catalogues
type CSVReader struct{}

// ReadTable implements TableReader
func (CSVReader) ReadTable(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

// DefaultSheet is the worksheet read from spreadsheet catalogues
const DefaultSheet = "Catalogue"

// XLSXReader reads one worksheet of an Excel workbook. When Sheet does not
// exist the first worksheet is used.
type XLSXReader struct {
	Sheet string
}

// ReadTable implements TableReader
func (x XLSXReader) ReadTable(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyCatalogue
	}

	sheet := sheets[0]
	if slices.Contains(sheets, x.Sheet) {
		sheet = x.Sheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
