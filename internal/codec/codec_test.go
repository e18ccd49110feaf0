package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwisniewski/hipokrates/internal/models"
)

func TestDecodeCatalog(t *testing.T) {
	data := []byte("code;name;amount;amount2\n12;Morfologia krwi;12,50;\n;Badanie ogólne moczu;20,00;uwaga\n")

	entries, err := DecodeCatalog(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.CatalogEntry{Code: "12", Name: "Morfologia krwi", Amount: "12,50"}, entries[0])
	assert.Equal(t, models.CatalogEntry{Name: "Badanie ogólne moczu", Amount: "20,00", Amount2: "uwaga"}, entries[1])
}

func TestDecodeCatalog_Empty(t *testing.T) {
	for _, data := range [][]byte{nil, []byte(""), []byte("  \n")} {
		entries, err := DecodeCatalog(data)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

func TestDecodeCatalog_MissingAndUnknownColumns(t *testing.T) {
	// Column order differs, amount2 is absent, an extra column is ignored.
	data := []byte("name;code;extra;amount\nTSH;7;x;30,00\n")

	entries, err := DecodeCatalog(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.CatalogEntry{Code: "7", Name: "TSH", Amount: "30,00"}, entries[0])
}

func TestDecodeCatalog_ShortRow(t *testing.T) {
	data := []byte("code;name;amount;amount2\n5;Glukoza\n")

	entries, err := DecodeCatalog(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.CatalogEntry{Code: "5", Name: "Glukoza"}, entries[0])
}

func TestCatalogRoundTrip(t *testing.T) {
	in := []models.CatalogEntry{
		{Code: "1", Name: "Żelazo", Amount: "15,00", Amount2: "promocja"},
		{Name: "Witamina D3; metabolit", Amount: "89,90"},
	}

	data, err := EncodeCatalog(in)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "code;name;amount;amount2\n"))

	out, err := DecodeCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncode_RejectsLineBreaks(t *testing.T) {
	_, err := EncodeCatalog([]models.CatalogEntry{{Name: "bad\nname"}})
	require.ErrorIs(t, err, ErrLineBreak)

	_, err = EncodePayments([]models.Payment{{Notes: "line\rbreak"}})
	require.ErrorIs(t, err, ErrLineBreak)
}

func TestPaymentRoundTrip(t *testing.T) {
	in := []models.Payment{
		{UID: "u-1", Timestamp: "05.03.2024, 10:00:00", Description: "Morfologia", Amount: "12,50", Notes: "gotówka"},
		{UID: "u-2", Timestamp: "05.03.2024, 11:00:00", Description: "TSH", Amount: "30,00"},
	}

	data, err := EncodePayments(in)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "uid;timestamp;description;amount;notes\n"))

	out, err := DecodePayments(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_StripsBOM(t *testing.T) {
	data := []byte("\xef\xbb\xbfcode;name;amount;amount2\n1;OB;10,00;\n")

	entries, err := DecodeCatalog(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].Code)
}
