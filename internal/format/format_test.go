package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNumberEnglishGrouping(t *testing.T) {
	require.Equal(t, "1,234,567", Number(1234567, "en"))
	require.Equal(t, "12.50", Number(12.5, "en"))
	require.Equal(t, "1,000", Toman(999.6, "en"))
}

func TestNumberPersianHasNoASCIIDigits(t *testing.T) {
	got := Number(1234567, "fa")
	require.NotEmpty(t, got)
	require.NotContains(t, got, "1")
}

func TestDate(t *testing.T) {
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "May 1, 2024", Date(d, "en"))
	require.Equal(t, "۱۴۰۳/۰۲/۱۲", Date(d, "fa"))
	require.Empty(t, Date(time.Time{}, "fa"))
}

func TestJalali(t *testing.T) {
	cases := []struct {
		gregorian string
		y, m, d   int
	}{
		{"2024-03-19", 1402, 12, 29},
		{"2024-03-20", 1403, 1, 1},
		{"2024-05-01", 1403, 2, 12},
		{"2024-09-22", 1403, 7, 1},
		{"2025-03-20", 1403, 12, 30},
		{"2025-03-21", 1404, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.gregorian, func(t *testing.T) {
			g, err := time.Parse("2006-01-02", tc.gregorian)
			require.NoError(t, err)
			y, m, d := Jalali(g)
			require.Equal(t, []int{tc.y, tc.m, tc.d}, []int{y, m, d})
		})
	}
}

func TestPersianDigits(t *testing.T) {
	require.Equal(t, "۰۱۲۳۴۵۶۷۸۹ m²", PersianDigits("0123456789 m²"))
}

func TestParseNumber(t *testing.T) {
	for in, want := range map[string]float64{
		"120":      120,
		"۱۲۰":      120,
		"١٢٠":      120,
		"1,250.5":  1250.5,
		"۱٬۲۵۰٫۵": 1250.5,
		" 42 ":     42,
	} {
		got, err := ParseNumber(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseNumber("abc")
	require.Error(t, err)
	_, err = ParseNumber("")
	require.Error(t, err)
}
