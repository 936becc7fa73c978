// Package xlsximport parses voucher bulk-import workbooks. Column layout is
// not fixed: the link/code, amount, status and store columns are detected by
// scanning the header row, falling back to content sniffing, the same way
// operators' ad-hoc sheets have always been handled.
package xlsximport

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vouchly/voucher_ledger/internal/core/domain"
)

// ErrNoCodeColumn indicates no column containing voucher codes or links
// could be located.
var ErrNoCodeColumn = errors.New("no code or link column found in workbook")

var (
	codeDigitsRe = regexp.MustCompile(`\d{15,25}`)
	amountRe     = regexp.MustCompile(`[\d.]+`)
)

var usedMarkers = []string{"used", "נוצל", "נוצלה", "מומש"}

// Report counts what happened to each row of a workbook.
type Report struct {
	Drafts      []domain.VoucherDraft
	SkippedUsed int
	SkippedBad  int
}

// ParseWorkbook extracts voucher drafts from the first sheet of an xlsx
// workbook. Rows whose status column marks them as used are skipped; rows
// without a recoverable code or amount are counted as bad.
func ParseWorkbook(contents []byte) (*Report, error) {
	f, err := excelize.OpenReader(bytes.NewReader(contents))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &Report{}, nil
	}

	cols := detectColumns(rows)
	if cols.code < 0 {
		return nil, ErrNoCodeColumn
	}

	report := &Report{}
	for _, row := range rows[1:] {
		if cols.status >= 0 && isUsed(cell(row, cols.status)) {
			report.SkippedUsed++
			continue
		}

		code := codeDigitsRe.FindString(cell(row, cols.code))
		if code == "" {
			report.SkippedBad++
			continue
		}

		amount := parseAmount(cell(row, cols.amount))
		if amount <= 0 {
			report.SkippedBad++
			continue
		}

		draft := domain.VoucherDraft{
			ExternalID: "import:" + code,
			Code:       code,
			FaceValue:  amount,
		}
		if cols.store >= 0 {
			draft.Store = strings.TrimSpace(cell(row, cols.store))
		}
		report.Drafts = append(report.Drafts, draft)
	}
	return report, nil
}

type columns struct {
	code, amount, status, store int
}

// detectColumns scans the header row for known column names, then falls back
// to sniffing the data rows for a column containing voucher codes.
func detectColumns(rows [][]string) columns {
	cols := columns{code: -1, amount: -1, status: -1, store: -1}
	for i, h := range rows[0] {
		header := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.code < 0 && containsAny(header, "link", "url", "קישור", "code", "ברקוד"):
			cols.code = i
		case cols.amount < 0 && containsAny(header, "שווי", "סכום", "amount", "price", "₪"):
			cols.amount = i
		case cols.status < 0 && containsAny(header, "סטטוס", "status", "מצב"):
			cols.status = i
		case cols.store < 0 && containsAny(header, "חנות", "store", "סניף", "רשת"):
			cols.store = i
		}
	}

	if cols.code < 0 {
		for i := range rows[0] {
			if i == cols.amount || i == cols.status {
				continue
			}
			for _, row := range rows[1:] {
				if codeDigitsRe.MatchString(cell(row, i)) {
					cols.code = i
					break
				}
			}
			if cols.code >= 0 {
				break
			}
		}
	}

	if cols.amount < 0 {
		for i := range rows[0] {
			if i == cols.code || i == cols.status || i == cols.store {
				continue
			}
			numeric := 0
			for _, row := range rows[1:] {
				if parseAmount(cell(row, i)) > 0 {
					numeric++
				}
			}
			if numeric > 0 && numeric >= (len(rows)-1)/2 {
				cols.amount = i
				break
			}
		}
	}
	return cols
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isUsed(status string) bool {
	status = strings.ToLower(strings.TrimSpace(status))
	for _, m := range usedMarkers {
		if strings.Contains(status, m) {
			return true
		}
	}
	return false
}

// parseAmount handles "200", "200.00" and "₪200" cells.
func parseAmount(s string) int64 {
	m := amountRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}
