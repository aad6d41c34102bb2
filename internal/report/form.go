package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxProblemBlocks is the number of problem blocks a single form offers.
const MaxProblemBlocks = 3

var (
	ErrEmptySubmission = errors.New("please fill at least one problem")
	ErrTooManyProblems = fmt.Errorf("a form holds at most %d problems", MaxProblemBlocks)
)

// ProblemInput is one problem block exactly as the user typed it.
type ProblemInput struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Impact      string `yaml:"impact"`
	Solution    string `yaml:"solution"`
}

// IsEmpty reports whether neither title nor description was filled in.
func (p ProblemInput) IsEmpty() bool {
	return strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Description) == ""
}

// Form is a complete submission: startup metadata plus up to three problems.
type Form struct {
	Startup  StartupInfo    `yaml:"startup"`
	Problems []ProblemInput `yaml:"problems"`
}

// NormalizedStartup returns the trimmed startup metadata with the default name applied.
func (f *Form) NormalizedStartup() StartupInfo {
	s := StartupInfo{
		Name:     strings.TrimSpace(f.Startup.Name),
		Desc:     strings.TrimSpace(f.Startup.Desc),
		Industry: strings.TrimSpace(f.Startup.Industry),
		Market:   strings.TrimSpace(f.Startup.Market),
		Founded:  strings.TrimSpace(f.Startup.Founded),
	}
	if s.Name == "" {
		s.Name = DefaultStartupName
	}
	return s
}

// BuildReports turns the non-empty problem blocks of f into reports, in block
// order. All reports share the startup metadata and the creation time.
func BuildReports(f *Form, now time.Time, newID func() string) ([]Report, error) {
	if len(f.Problems) > MaxProblemBlocks {
		return nil, ErrTooManyProblems
	}
	if newID == nil {
		newID = NewID
	}

	startup := f.NormalizedStartup()
	created := now.UTC()

	var reports []Report
	for _, p := range f.Problems {
		if p.IsEmpty() {
			continue
		}
		reports = append(reports, Report{
			ID:          newID(),
			StartupInfo: startup,
			Title:       strings.TrimSpace(p.Title),
			Description: strings.TrimSpace(p.Description),
			Impact:      ParseImpact(p.Impact),
			Solution:    strings.TrimSpace(p.Solution),
			Created:     created,
		})
	}

	if len(reports) == 0 {
		return nil, ErrEmptySubmission
	}
	return reports, nil
}
