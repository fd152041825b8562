package decode

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"SerialScope/internal/domain/models"
)

func TestDecodeBasicLine(t *testing.T) {
	rec, err := Decode("Time:1.5,RPM:3000,Temp:87.2")
	require.NoError(t, err)
	require.Equal(t, 1.5, rec.Timestamp)
	require.Equal(t, []string{"RPM", "Temp"}, rec.Names())

	v, ok := rec.Value("RPM")
	require.True(t, ok)
	require.Equal(t, 3000.0, v)
}

func TestDecodeMissingTime(t *testing.T) {
	_, err := Decode("RPM:3000,Temp:87.2")
	require.ErrorIs(t, err, ErrMissingTimestamp)
}

func TestDecodeUnparsableTimeCountsAsMissing(t *testing.T) {
	_, err := Decode("Time:abc,RPM:3000")
	require.ErrorIs(t, err, ErrMissingTimestamp)
}

func TestDecodeGarbageValueBecomesNaN(t *testing.T) {
	rec, err := Decode("Time:1,Garbage:xyz")
	require.NoError(t, err)
	v, ok := rec.Value("Garbage")
	require.True(t, ok)
	require.True(t, math.IsNaN(v))
}

func TestDecodeFieldWithoutSeparatorSkipped(t *testing.T) {
	rec, err := Decode("Time:2,junk,RPM:100")
	require.NoError(t, err)
	require.Equal(t, []string{"RPM"}, rec.Names())
}

func TestDecodeWhitespaceTrimmed(t *testing.T) {
	rec, err := Decode(" Time : 3 , RPM : 250 ")
	require.NoError(t, err)
	require.Equal(t, 3.0, rec.Timestamp)
	v, ok := rec.Value("RPM")
	require.True(t, ok)
	require.Equal(t, 250.0, v)
}

func TestDecodeDuplicateKeyLastWins(t *testing.T) {
	rec, err := Decode("Time:4,A:1,A:2")
	require.NoError(t, err)
	require.Len(t, rec.Samples, 1)
	v, _ := rec.Value("A")
	require.Equal(t, 2.0, v)
}

func TestDecodeEmptyKeySkipped(t *testing.T) {
	rec, err := Decode("Time:5,:9,B:7")
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, rec.Names())
}

func TestDecodeValueWithColon(t *testing.T) {
	// Cut splits on the first ':'; the rest of the field is the value.
	rec, err := Decode("Time:6,Note:1:2")
	require.NoError(t, err)
	v, ok := rec.Value("Note")
	require.True(t, ok)
	require.True(t, math.IsNaN(v))
}

func TestDecodeEmptyLine(t *testing.T) {
	_, err := Decode("")
	require.True(t, errors.Is(err, ErrMissingTimestamp))
}

func TestDecodeTimeOnly(t *testing.T) {
	rec, err := Decode("Time:7")
	require.NoError(t, err)
	require.Equal(t, 7.0, rec.Timestamp)
	require.Empty(t, rec.Samples)
	require.Equal(t, models.Record{Timestamp: 7}, rec)
}
