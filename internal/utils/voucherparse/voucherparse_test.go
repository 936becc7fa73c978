package voucherparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchly/voucher_ledger/internal/utils/voucherparse"
)

func TestParseSubject(t *testing.T) {
	faceValue, store, err := voucherparse.ParseSubject("שובר על סך ₪200.00 - שופרסל שלי נווה הדרים - ראשון לציון")
	require.NoError(t, err)
	assert.Equal(t, int64(200), faceValue)
	assert.Equal(t, "שופרסל שלי נווה הדרים", store)
}

func TestParseSubject_ForwardPrefix(t *testing.T) {
	faceValue, store, err := voucherparse.ParseSubject("Fw: שובר על סך ₪50.00 - רמי לוי")
	require.NoError(t, err)
	assert.Equal(t, int64(50), faceValue)
	assert.Equal(t, "רמי לוי", store)

	faceValue, _, err = voucherparse.ParseSubject("FWD: שובר על סך ₪30.00 - ויקטורי")
	require.NoError(t, err)
	assert.Equal(t, int64(30), faceValue)
}

func TestParseSubject_NoStore(t *testing.T) {
	faceValue, store, err := voucherparse.ParseSubject("שובר על סך ₪100.00")
	require.NoError(t, err)
	assert.Equal(t, int64(100), faceValue)
	assert.Empty(t, store)
}

func TestParseSubject_NoAmount(t *testing.T) {
	_, _, err := voucherparse.ParseSubject("חשבונית חודשית")
	assert.ErrorIs(t, err, voucherparse.ErrNoAmount)
}

func TestParseBody(t *testing.T) {
	body := "שלום,\nהשובר שלך מוכן.\n  12345678901234567890  \nבתאבון"
	code, err := voucherparse.ParseBody(body)
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567890", code)
}

func TestParseBody_NoCode(t *testing.T) {
	// 10 digits is too short, and an inline number does not count.
	_, err := voucherparse.ParseBody("הקוד הוא 1234567890 בלבד")
	assert.ErrorIs(t, err, voucherparse.ErrNoCode)
}

func TestParse(t *testing.T) {
	parsed, err := voucherparse.Parse(
		"Re: שובר על סך ₪150.00 - יוחננוף - תל אביב",
		"קוד השובר:\n123456789012345\n",
	)
	require.NoError(t, err)
	assert.Equal(t, int64(150), parsed.FaceValue)
	assert.Equal(t, "יוחננוף", parsed.Store)
	assert.Equal(t, "123456789012345", parsed.Code)
}

func TestCodePattern(t *testing.T) {
	assert.True(t, voucherparse.CodePattern("123456789012345"))
	assert.True(t, voucherparse.CodePattern("  1234567890123456789012345  "))
	assert.False(t, voucherparse.CodePattern("12345678901234"))         // too short
	assert.False(t, voucherparse.CodePattern("12345678901234567890123456")) // too long
	assert.False(t, voucherparse.CodePattern("12345678901234a"))
	assert.False(t, voucherparse.CodePattern(""))
}
