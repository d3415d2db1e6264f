package madi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrTimeFormat is returned when a time token carries an am/pm marker but
// cannot be read as H:MM.
var ErrTimeFormat = errors.New("unrecognized time format")

func compact(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
}

func hasMarker(text string) bool {
	return strings.Contains(text, "am") || strings.Contains(text, "pm")
}

// NormalizeTime converts one 12-hour clock token like "1:25pm" into 24-hour
// "13:25". A token without an am/pm marker is returned as is (whitespace
// removed, lowercased). 12am becomes 00, 12pm stays 12.
func NormalizeTime(token string) (string, error) {
	text := compact(token)

	pm := false
	switch {
	case strings.Contains(text, "am"):
		text = strings.ReplaceAll(text, "am", "")
	case strings.Contains(text, "pm"):
		pm = true
		text = strings.ReplaceAll(text, "pm", "")
	default:
		return text, nil
	}

	hourText, minutes, ok := strings.Cut(text, ":")
	if !ok || strings.Contains(minutes, ":") || minutes == "" {
		return "", fmt.Errorf("%w: %q", ErrTimeFormat, token)
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 12 {
		return "", fmt.Errorf("%w: %q", ErrTimeFormat, token)
	}

	switch {
	case !pm && hour == 12:
		hour = 0
	case pm && hour < 12:
		hour += 12
	}
	return fmt.Sprintf("%02d:%s", hour, minutes), nil
}

func isDash(r rune) bool {
	return r == '-' || r == '–' || r == '—'
}

// NormalizeTimeRange normalizes a time cell that holds either one token or a
// "start - end" range, a range is joined back with " - ". Text without any
// am/pm marker is returned trimmed but otherwise unchanged.
func NormalizeTimeRange(text string) (string, error) {
	if !hasMarker(compact(text)) {
		return strings.TrimSpace(text), nil
	}

	parts := strings.FieldsFunc(text, isDash)
	if len(parts) == 0 || len(parts) > 2 {
		return "", fmt.Errorf("%w: %q", ErrTimeFormat, text)
	}
	for i, part := range parts {
		normalized, err := NormalizeTime(part)
		if err != nil {
			return "", err
		}
		parts[i] = normalized
	}
	return strings.Join(parts, " - "), nil
}
