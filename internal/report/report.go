package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultImpact = 5
	MinImpact     = 1
	MaxImpact     = 10

	DefaultStartupName = "ProblemPad"
)

// StartupInfo is the startup metadata copied onto every report of a submission.
type StartupInfo struct {
	Name     string `gorm:"column:startup;size:200" json:"startup" yaml:"name"`
	Desc     string `gorm:"column:startup_desc;type:text" json:"startup_desc" yaml:"description"`
	Industry string `gorm:"column:startup_industry;size:200" json:"startup_industry" yaml:"industry"`
	Market   string `gorm:"column:startup_market;size:200" json:"startup_market" yaml:"market"`
	Founded  string `gorm:"column:startup_founded;size:32" json:"startup_founded" yaml:"founded"` // YYYY-MM-DD
}

// Report is a single problem a startup faces. Reports are never edited,
// only created and deleted.
type Report struct {
	Seq         uint   `gorm:"primaryKey;autoIncrement" json:"-"` // insertion order
	ID          string `gorm:"uniqueIndex;size:64;not null" json:"id"`
	StartupInfo `gorm:"embedded"`
	Title       string    `gorm:"type:text;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Impact      int       `json:"impact"`
	Solution    string    `gorm:"type:text" json:"solution"`
	Created     time.Time `gorm:"index" json:"created"`
}

func (Report) TableName() string { return "reports" }

// UnmarshalJSON accepts the older payload shape where the rating was sent
// as "severity", possibly as a string, and any ISO-8601 "created" value.
func (r *Report) UnmarshalJSON(data []byte) error {
	type alias Report
	aux := struct {
		*alias
		Impact   json.RawMessage `json:"impact"`
		Severity json.RawMessage `json:"severity"`
		Created  json.RawMessage `json:"created"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Created = time.Time{}
	var created string
	if err := json.Unmarshal(aux.Created, &created); err == nil {
		r.Created, _ = ParseCreated(created)
	}

	r.Impact = 0
	if v, ok := parseRawRating(aux.Impact); ok {
		r.Impact = v
	} else if v, ok := parseRawRating(aux.Severity); ok {
		r.Impact = v
	}
	return nil
}

// HasContent reports whether the report carries a title or a description.
func (r *Report) HasContent() bool {
	return strings.TrimSpace(r.Title) != "" || strings.TrimSpace(r.Description) != ""
}

// MissingFields lists the fields a stored report cannot do without.
func (r *Report) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.ID) == "" {
		missing = append(missing, "id")
	}
	if !r.HasContent() {
		missing = append(missing, "title", "description")
	}
	if r.Created.IsZero() {
		missing = append(missing, "created")
	}
	return missing
}

// createdLayouts are the ISO-8601 forms accepted for "created". Layouts
// without an offset are read as UTC.
var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseCreated reads a creation timestamp. Unparsable values return the
// zero time and false, so one odd record never hides the rest of a list.
func ParseCreated(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range createdLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NewID returns a fresh report id.
func NewID() string {
	return uuid.NewString()
}

// ParseImpact converts a raw form value to a rating. Anything that is not a
// positive number falls back to DefaultImpact; numbers are clamped to 1..10.
func ParseImpact(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return DefaultImpact
	}
	if f == 0 || math.IsNaN(f) {
		return DefaultImpact
	}
	return roundImpact(f)
}

// roundImpact clamps before converting so huge values cannot overflow int.
func roundImpact(f float64) int {
	f = math.Round(f)
	if f < MinImpact {
		return MinImpact
	}
	if f > MaxImpact {
		return MaxImpact
	}
	return int(f)
}

// NormalizeImpact maps a stored rating into 1..10, treating 0 as unset.
func NormalizeImpact(v int) int {
	if v == 0 {
		return DefaultImpact
	}
	return clampImpact(v)
}

func clampImpact(v int) int {
	if v < MinImpact {
		return MinImpact
	}
	if v > MaxImpact {
		return MaxImpact
	}
	return v
}

func parseRawRating(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return ratingValue(n), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return ratingValue(f), true
}

// ratingValue keeps 0 as "unset" and clamps everything else into 1..10.
func ratingValue(f float64) int {
	if math.IsNaN(f) || math.Round(f) == 0 {
		return 0
	}
	return roundImpact(f)
}
