package madi

import (
	"fmt"
	"strings"
)

// Classifier splits the sessions of one group into rotation A (numerator)
// and rotation B (denominator). Every session ends up in exactly one of the
// two lists and relative order is kept.
type Classifier interface {
	Partition(sessions []RawSession) (a, b []RawSession)
}

const (
	ClassifierBalanced = "balanced"
	ClassifierMarker   = "marker"
)

func NewClassifier(name string) (Classifier, error) {
	switch name {
	case "", ClassifierBalanced:
		return BalancedClassifier{}, nil
	case ClassifierMarker:
		return MarkerClassifier{}, nil
	}
	return nil, fmt.Errorf("unknown classifier %q", name)
}

// BalancedClassifier fills A and B alternately so their sizes never differ by
// more than one. It is a placeholder: it reads no parity marker from the
// timetable at all.
type BalancedClassifier struct{}

func (BalancedClassifier) Partition(sessions []RawSession) (a, b []RawSession) {
	a = []RawSession{}
	b = []RawSession{}
	for _, s := range sessions {
		if len(a) <= len(b) {
			a = append(a, s)
		} else {
			b = append(b, s)
		}
	}
	return a, b
}

const (
	markerNumerator   = "числ"
	markerDenominator = "знам"
)

// MarkerClassifier looks for a numerator or denominator marker in the
// subject and trailing cells of a session. Unmarked sessions fall back to
// the balancing rule.
type MarkerClassifier struct{}

func sessionMarker(s RawSession) string {
	text := strings.ToLower(s.Subject + " " + strings.Join(s.Trailing, " "))
	switch {
	case strings.Contains(text, markerNumerator):
		return markerNumerator
	case strings.Contains(text, markerDenominator):
		return markerDenominator
	}
	return ""
}

func (MarkerClassifier) Partition(sessions []RawSession) (a, b []RawSession) {
	a = []RawSession{}
	b = []RawSession{}
	for _, s := range sessions {
		switch sessionMarker(s) {
		case markerNumerator:
			a = append(a, s)
		case markerDenominator:
			b = append(b, s)
		default:
			if len(a) <= len(b) {
				a = append(a, s)
			} else {
				b = append(b, s)
			}
		}
	}
	return a, b
}
