package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Weekday is a teaching day, the timetable never has classes on sunday.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{
	"",
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
}

// ParseWeekday matches a weekday label case-insensitively, surrounding
// whitespace is ignored.
func ParseWeekday(text string) (Weekday, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, false
	}
	for i := Monday; i <= Saturday; i++ {
		if strings.ToLower(weekdayNames[i]) == text {
			return i, true
		}
	}
	return 0, false
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

func (d Weekday) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("marshal weekday: invalid value %d", int(d))
	}
	return json.Marshal(weekdayNames[d])
}

func (d *Weekday) UnmarshalJSON(data []byte) error {
	var text string
	err := json.Unmarshal(data, &text)
	if err != nil {
		return err
	}
	parsed, ok := ParseWeekday(text)
	if !ok {
		return fmt.Errorf("unmarshal weekday: unknown day %q", text)
	}
	*d = parsed
	return nil
}

// Session is one normalized class meeting.
type Session struct {
	Day        Weekday `json:"day"`
	Time       string  `json:"time"`
	Subject    string  `json:"subject"`
	LessonType string  `json:"type"`
	Teacher    string  `json:"teacher"`
	Room       string  `json:"room"`
}

// Document maps a group label to its ordered sessions for one rotation.
type Document map[string][]Session

// Groups returns the document's group labels in sorted order.
func (d Document) Groups() []string {
	groups := make([]string, 0, len(d))
	for g := range d {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Rotation identifies one of the two alternating weekly calendars.
type Rotation string

const (
	// RotationA is the "numerator" (odd) week.
	RotationA Rotation = "numerator"
	// RotationB is the "denominator" (even) week.
	RotationB Rotation = "denominator"
)

// Rotations lists every rotation in output order.
var Rotations = []Rotation{RotationA, RotationB}

func ParseRotation(text string) (Rotation, bool) {
	switch Rotation(strings.ToLower(strings.TrimSpace(text))) {
	case RotationA:
		return RotationA, true
	case RotationB:
		return RotationB, true
	}
	return "", false
}
