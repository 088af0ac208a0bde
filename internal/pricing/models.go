package pricing

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category is the pricing tier of a campaign. Rates are per interaction, in
// whole credits, and strictly increase in the order below. That ordering is a
// policy invariant of the product tiering, not an accident of configuration.
type Category string

const (
	CategoryText     Category = "text"
	CategoryVoice    Category = "voice"
	CategorySurvey   Category = "survey"
	CategoryCombined Category = "combined"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryText, CategoryVoice, CategorySurvey, CategoryCombined:
		return true
	default:
		return false
	}
}

// tierOrder lists categories from cheapest to most expensive.
var tierOrder = []Category{CategoryText, CategoryVoice, CategorySurvey, CategoryCombined}

// RateTable maps categories to credits charged per interaction.
// Rates are external pricing policy, supplied as configuration, never
// hardcoded in business logic.
type RateTable struct {
	Rates map[Category]int64 `yaml:"rates" json:"rates"`
}

var ErrInvalidRateTable = errors.New("pricing: invalid rate table")

// LoadRates reads a YAML rate table, e.g.:
//
//	rates:
//	  text: 1
//	  voice: 3
//	  survey: 5
//	  combined: 8
func LoadRates(path string) (RateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RateTable{}, fmt.Errorf("pricing: read rates: %w", err)
	}
	return ParseRates(raw)
}

func ParseRates(raw []byte) (RateTable, error) {
	var rt RateTable
	if err := yaml.Unmarshal(raw, &rt); err != nil {
		return RateTable{}, fmt.Errorf("pricing: parse rates: %w", err)
	}
	if err := rt.Validate(); err != nil {
		return RateTable{}, err
	}
	return rt, nil
}

// Validate checks that every category has a positive rate and that the tier
// ordering text < voice < survey < combined holds strictly.
func (rt RateTable) Validate() error {
	var prev int64 = 0
	for _, c := range tierOrder {
		rate, ok := rt.Rates[c]
		if !ok {
			return fmt.Errorf("%w: missing rate for %q", ErrInvalidRateTable, c)
		}
		if rate <= 0 {
			return fmt.Errorf("%w: rate for %q must be positive, got %d", ErrInvalidRateTable, c, rate)
		}
		if rate <= prev {
			return fmt.Errorf("%w: rate for %q (%d) must be strictly greater than the previous tier (%d)", ErrInvalidRateTable, c, rate, prev)
		}
		prev = rate
	}
	return nil
}

func (rt RateTable) Rate(c Category) (int64, bool) {
	r, ok := rt.Rates[c]
	return r, ok
}
