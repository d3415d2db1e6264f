package madi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTime24h(t *testing.T) {
	for _, token := range []string{"09:55", "13:25", "00:00", "23:59", "7:05"} {
		out, err := NormalizeTime(token)
		require.NoError(t, err)
		require.Equal(t, token, out)
	}
}

func TestNormalizeTimeAm(t *testing.T) {
	for hour := 1; hour <= 11; hour++ {
		out, err := NormalizeTime(fmt.Sprintf("%d:40am", hour))
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("%02d:40", hour), out)
	}

	out, err := NormalizeTime("12:15am")
	require.NoError(t, err)
	require.Equal(t, "00:15", out)
}

func TestNormalizeTimePm(t *testing.T) {
	for hour := 1; hour <= 11; hour++ {
		out, err := NormalizeTime(fmt.Sprintf("%d:05 PM", hour))
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("%02d:05", hour+12), out)
	}

	out, err := NormalizeTime("12:30pm")
	require.NoError(t, err)
	require.Equal(t, "12:30", out)
}

func TestNormalizeTimeInvalid(t *testing.T) {
	for _, token := range []string{"am", "9am", "x:30pm", "13:00pm", "1:2:3am", "9:pm"} {
		_, err := NormalizeTime(token)
		require.True(t, errors.Is(err, ErrTimeFormat), token)
	}
}

func TestNormalizeTimeRange(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "9:55am - 11:25am", expected: "09:55 - 11:25"},
		{input: "11:40am–1:10pm", expected: "11:40 - 13:10"},
		{input: "3:10 pm — 4:40 pm", expected: "15:10 - 16:40"},
		{input: "4:55pm", expected: "16:55"},
		{input: " 09:55 - 11:25 ", expected: "09:55 - 11:25"},
	}
	for _, row := range table {
		out, err := NormalizeTimeRange(row.input)
		require.NoError(t, err, row.input)
		require.Equal(t, row.expected, out, row.input)
	}

	_, err := NormalizeTimeRange("1:00pm - 2:00pm - 3:00pm")
	require.True(t, errors.Is(err, ErrTimeFormat))
	_, err = NormalizeTimeRange("noon pm")
	require.True(t, errors.Is(err, ErrTimeFormat))
}
