package xlsximport_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vouchly/voucher_ledger/internal/utils/xlsximport"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseWorkbook_HeaderDetection(t *testing.T) {
	contents := buildWorkbook(t, [][]interface{}{
		{"ברקוד", "שווי", "סטטוס", "רשת"},
		{"12345678901234567890", "200", "", "רמי לוי"},
		{"09876543210987654321", "₪50.00", "", "שופרסל"},
	})

	report, err := xlsximport.ParseWorkbook(contents)
	require.NoError(t, err)
	require.Len(t, report.Drafts, 2)

	assert.Equal(t, "import:12345678901234567890", report.Drafts[0].ExternalID)
	assert.Equal(t, "12345678901234567890", report.Drafts[0].Code)
	assert.Equal(t, int64(200), report.Drafts[0].FaceValue)
	assert.Equal(t, "רמי לוי", report.Drafts[0].Store)

	assert.Equal(t, int64(50), report.Drafts[1].FaceValue)
	assert.Equal(t, "שופרסל", report.Drafts[1].Store)
}

func TestParseWorkbook_SkipsUsedRows(t *testing.T) {
	contents := buildWorkbook(t, [][]interface{}{
		{"code", "amount", "status"},
		{"12345678901234567890", "100", "נוצל"},
		{"09876543210987654321", "100", ""},
	})

	report, err := xlsximport.ParseWorkbook(contents)
	require.NoError(t, err)
	assert.Len(t, report.Drafts, 1)
	assert.Equal(t, 1, report.SkippedUsed)
	assert.Equal(t, "09876543210987654321", report.Drafts[0].Code)
}

func TestParseWorkbook_CountsBadRows(t *testing.T) {
	contents := buildWorkbook(t, [][]interface{}{
		{"code", "amount"},
		{"not-a-code", "100"},
		{"12345678901234567890", "abc"},
		{"09876543210987654321", "100"},
	})

	report, err := xlsximport.ParseWorkbook(contents)
	require.NoError(t, err)
	assert.Len(t, report.Drafts, 1)
	assert.Equal(t, 2, report.SkippedBad)
}

func TestParseWorkbook_SniffsCodeColumnWithoutHeaders(t *testing.T) {
	// The code is embedded in a link and the header row names nothing useful.
	contents := buildWorkbook(t, [][]interface{}{
		{"a", "b"},
		{"https://vouchers.example/v/12345678901234567890", "150"},
	})

	report, err := xlsximport.ParseWorkbook(contents)
	require.NoError(t, err)
	require.Len(t, report.Drafts, 1)
	assert.Equal(t, "12345678901234567890", report.Drafts[0].Code)
	assert.Equal(t, int64(150), report.Drafts[0].FaceValue)
}

func TestParseWorkbook_NoCodeColumn(t *testing.T) {
	contents := buildWorkbook(t, [][]interface{}{
		{"name", "amount"},
		{"plain text", "100"},
	})

	_, err := xlsximport.ParseWorkbook(contents)
	assert.ErrorIs(t, err, xlsximport.ErrNoCodeColumn)
}

func TestParseWorkbook_NotAWorkbook(t *testing.T) {
	_, err := xlsximport.ParseWorkbook([]byte("definitely not xlsx"))
	assert.Error(t, err)
}
