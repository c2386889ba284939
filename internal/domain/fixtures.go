package domain

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture is a YAML-loadable dataset backing MemoryServices. Used by the CLI
// to run the pipeline against a sample day without live collaborators.
type Fixture struct {
	Date        string         `yaml:"date"` // 2006-01-02
	Schedule    []fixtureBlock `yaml:"schedule"`
	Tasks       []Task         `yaml:"tasks"`
	Emails      []EmailSummary `yaml:"emails"`
	Preferences *Preferences   `yaml:"preferences"`
}

// fixtureBlock uses HH:MM clock times so datasets stay readable.
type fixtureBlock struct {
	ID      string    `yaml:"id"`
	Type    BlockType `yaml:"type"`
	Title   string    `yaml:"title"`
	Start   string    `yaml:"start"` // HH:MM
	End     string    `yaml:"end"`
	TaskIDs []string  `yaml:"taskIds"`
}

// LoadFixture reads a fixture file and materializes it as MemoryServices.
// The returned date is the fixture's schedule date in the given location.
func LoadFixture(path string, loc *time.Location) (*MemoryServices, time.Time, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read fixture: %w", err)
	}

	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, time.Time{}, fmt.Errorf("parse fixture: %w", err)
	}

	date, err := time.ParseInLocation("2006-01-02", fx.Date, loc)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("fixture date %q: %w", fx.Date, err)
	}

	blocks := make([]TimeBlock, 0, len(fx.Schedule))
	for i, fb := range fx.Schedule {
		start, err := time.Parse("15:04", fb.Start)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("fixture block %d start %q: %w", i, fb.Start, err)
		}
		end, err := time.Parse("15:04", fb.End)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("fixture block %d end %q: %w", i, fb.End, err)
		}
		id := fb.ID
		if id == "" {
			id = fmt.Sprintf("block-%d", i+1)
		}
		blocks = append(blocks, TimeBlock{
			ID:        id,
			Type:      fb.Type,
			Title:     fb.Title,
			StartTime: time.Date(date.Year(), date.Month(), date.Day(), start.Hour(), start.Minute(), 0, 0, loc),
			EndTime:   time.Date(date.Year(), date.Month(), date.Day(), end.Hour(), end.Minute(), 0, 0, loc),
			TaskIDs:   fb.TaskIDs,
		})
	}

	svc := NewMemoryServices()
	svc.SetSchedule(date, blocks)
	svc.SetBacklog(fx.Tasks)
	svc.SetEmails(fx.Emails)
	if fx.Preferences != nil {
		svc.SetPreferences(*fx.Preferences)
	}
	return svc, date, nil
}
