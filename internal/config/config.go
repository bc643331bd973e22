package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultBatchSize is the default page size of the backfill-limits command.
	DefaultBatchSize = 100
)

// Hours is an optional duration in hours, decoded exactly from a YAML scalar.
type Hours struct {
	decimal.NullDecimal
}

// UnmarshalYAML accepts numbers and numeric strings. A null or empty value
// leaves the duration unset.
func (h *Hours) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: hours must be a number", n.Line)
	}
	value := strings.TrimSpace(n.Value)
	if n.Tag == "!!null" || value == "" {
		h.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("line %d: hours %q: %w", n.Line, value, err)
	}
	h.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

// Weekdays is a weekday list written either as a comma-separated string
// ("1,2,3" or "mon,tue") or as a YAML sequence.
type Weekdays string

// UnmarshalYAML joins sequence items with commas.
func (w *Weekdays) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*w = Weekdays(n.Value)
		return nil
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: weekday must be a scalar", item.Line)
			}
			parts = append(parts, item.Value)
		}
		*w = Weekdays(strings.Join(parts, ","))
		return nil
	default:
		return fmt.Errorf("line %d: days must be a string or a list", n.Line)
	}
}

// CalendarSpec is the textual form of a business calendar.
type CalendarSpec struct {
	StartOfDay string   `yaml:"start_of_day"`
	EndOfDay   string   `yaml:"end_of_day"`
	Days       Weekdays `yaml:"days"`
	Timezone   string   `yaml:"timezone"`
}

// IsZero reports whether no calendar field is set.
func (c CalendarSpec) IsZero() bool {
	return c.StartOfDay == "" && c.EndOfDay == "" && c.Days == "" && c.Timezone == ""
}

// Build parses the spec into a calendar.
func (c CalendarSpec) Build() (*domain.BusinessCalendar, error) {
	return domain.ParseBusinessCalendar(c.StartOfDay, c.EndOfDay, string(c.Days), c.Timezone)
}

// PolicySpec is one policy entry of a policies file.
type PolicySpec struct {
	Project  string       `yaml:"project"`
	Name     string       `yaml:"name"`
	Products []string     `yaml:"products"`
	SLAHours Hours        `yaml:"sla_hours"`
	OLAHours Hours        `yaml:"ola_hours"`
	Calendar CalendarSpec `yaml:"calendar"`
}

// PolicyFile is the document read by LoadPolicies.
type PolicyFile struct {
	// Project is used for entries that do not name their own.
	Project  string       `yaml:"project"`
	Policies []PolicySpec `yaml:"policies"`
}

// LoadPolicies reads a YAML policies file. Entries without a project inherit
// the file-level project.
func LoadPolicies(path string) ([]PolicySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policies: read %q: %w", path, err)
	}

	var file PolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("policies: parse yaml: %w", err)
	}

	if len(file.Policies) == 0 {
		return nil, fmt.Errorf("policies: %q defines no policies", path)
	}

	for i := range file.Policies {
		p := &file.Policies[i]
		if p.Project == "" {
			p.Project = file.Project
		}
		if p.Project == "" {
			return nil, fmt.Errorf("policies: entry %d (%s): %w", i, p.Name, domain.ErrProjectRequired)
		}
	}

	return file.Policies, nil
}

// LoadCalendar reads a business calendar from a YAML file holding the
// CalendarSpec fields at top level.
func LoadCalendar(path string) (CalendarSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CalendarSpec{}, fmt.Errorf("calendar: read %q: %w", path, err)
	}

	var spec CalendarSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return CalendarSpec{}, fmt.Errorf("calendar: parse yaml: %w", err)
	}

	return spec, nil
}
