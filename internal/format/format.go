package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Number formats n with the grouping and digits of lang.
// Example: Number(1234567, "en") => "1,234,567"
func Number(n float64, lang string) string {
	p := message.NewPrinter(tagFor(lang))
	var out string
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		out = p.Sprintf("%d", int64(n))
	} else {
		out = p.Sprintf("%.2f", n)
	}
	if strings.EqualFold(strings.TrimSpace(lang), "fa") {
		out = PersianDigits(out)
	}
	return out
}

// Toman formats an amount in toman for lang.
func Toman(amount float64, lang string) string {
	return Number(math.Round(amount), lang)
}

// Date formats time in a locale-friendly short form. Persian dates use the
// Solar Hijri calendar.
// Example: Date(2024-05-01, "fa") => "۱۴۰۳/۰۲/۱۲"
func Date(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch strings.ToLower(lang) {
	case "fa":
		y, m, d := Jalali(t)
		return PersianDigits(fmt.Sprintf("%04d/%02d/%02d", y, m, d))
	default:
		return t.Format("Jan 2, 2006")
	}
}

var daysBeforeMonth = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// Jalali converts the calendar date of t to the Solar Hijri calendar using
// the 33-year arithmetic cycle.
func Jalali(t time.Time) (year, month, day int) {
	gy, gm, gd := t.Date()
	gy2 := gy
	if gm > time.February {
		gy2++
	}
	days := 355666 + 365*gy + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400 + gd + daysBeforeMonth[gm-1]
	year = -1595 + 33*(days/12053)
	days %= 12053
	year += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		year += (days - 1) / 365
		days = (days - 1) % 365
	}
	if days < 186 {
		return year, 1 + days/31, 1 + days%31
	}
	return year, 7 + (days-186)/30, 1 + (days-186)%30
}

// PersianDigits replaces ASCII digits in s with Persian digits.
func PersianDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return '۰' + (r - '0')
		}
		return r
	}, s)
}

// ParseNumber reads a decimal typed with ASCII, Persian or Arabic-Indic
// digits. Grouping separators are ignored and the Persian decimal separator
// is accepted.
func ParseNumber(s string) (float64, error) {
	normalized := strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r == '٫':
			return '.'
		case r == ',' || r == '٬' || r == ' ' || r == '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	return strconv.ParseFloat(normalized, 64)
}

func tagFor(lang string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return language.English
	}
	return tag
}
