package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"immoweb-scraper/config"
	"immoweb-scraper/models"
	"immoweb-scraper/utils"
)

var (
	defaultNumericColumns = []string{
		"price", "construction_year", "bedrooms", "bathrooms",
		"living_area", "land_surface", "facades",
	}
	defaultBooleanColumns = []string{"has_garden", "has_terrace", "has_swimming_pool"}
	defaultCategorical    = []string{
		"property_type", "property_subtype", "building_condition",
		"kitchen_type", "epc_score", "sale_category",
	}

	// numberNoise is stripped from numeric cells before parsing.
	numberNoise = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "€", "", "_", "")
)

// OutlierRule drops rows whose value in Column is >= Max or < Min. A nil
// bound is not checked.
type OutlierRule struct {
	Column string
	Min    *float64
	Max    *float64
}

func (r OutlierRule) String() string {
	var parts []string
	if r.Min != nil {
		parts = append(parts, fmt.Sprintf("%s>=%s", r.Column, strconv.FormatFloat(*r.Min, 'f', -1, 64)))
	}
	if r.Max != nil {
		parts = append(parts, fmt.Sprintf("%s<%s", r.Column, strconv.FormatFloat(*r.Max, 'f', -1, 64)))
	}
	return strings.Join(parts, ",")
}

// trips reports whether v falls outside the rule. Null and non-numeric
// values never trip.
func (r OutlierRule) trips(v models.Value) bool {
	f, ok := v.Float64()
	if !ok {
		return false
	}
	if r.Max != nil && f >= *r.Max {
		return true
	}
	return r.Min != nil && f < *r.Min
}

// ParseOutlierRules parses a comma-separated list such as
// "price<50000000,construction_year>=1000". "col<x" keeps values below x and
// "col>=x" keeps values from x up.
func ParseOutlierRules(s string) ([]OutlierRule, error) {
	var rules []OutlierRule
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var col, raw string
		var isMin bool
		if i := strings.Index(part, ">="); i > 0 {
			col, raw, isMin = part[:i], part[i+2:], true
		} else if i := strings.Index(part, "<"); i > 0 {
			col, raw = part[:i], part[i+1:]
		} else {
			return nil, fmt.Errorf("outlier rule %q: expected column<max or column>=min", part)
		}

		col = strings.TrimSpace(col)
		bound, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(bound) {
			return nil, fmt.Errorf("outlier rule %q: invalid bound %q", part, raw)
		}
		if isMin {
			rules = append(rules, OutlierRule{Column: col, Min: &bound})
		} else {
			rules = append(rules, OutlierRule{Column: col, Max: &bound})
		}
	}
	return rules, nil
}

// CleanerConfig selects the columns each cleaning step works on. Columns
// missing from a table are skipped.
type CleanerConfig struct {
	DedupColumns   []string
	NumericColumns []string
	BooleanColumns []string
	// Categorical maps a column to its closed set of spellings. A nil set
	// means any value is allowed and is upper-cased.
	Categorical  map[string][]string
	OutlierRules []OutlierRule
	NullMarkers  []string
}

// DefaultCleanerConfig returns the property table rules: dedup on the
// address, bedrooms below threshold, and sale_category restricted to
// saleLabels when given.
func DefaultCleanerConfig(bedroomThreshold int, saleLabels []string) CleanerConfig {
	limit := float64(bedroomThreshold)
	categorical := make(map[string][]string, len(defaultCategorical))
	for _, col := range defaultCategorical {
		categorical[col] = nil
	}
	if len(saleLabels) > 0 {
		categorical["sale_category"] = saleLabels
	}
	return CleanerConfig{
		DedupColumns:   []string{"postal_code", "street", "number", "box"},
		NumericColumns: defaultNumericColumns,
		BooleanColumns: defaultBooleanColumns,
		Categorical:    categorical,
		OutlierRules:   []OutlierRule{{Column: "bedrooms", Max: &limit}},
		NullMarkers:    []string{"NA", "N/A", "#N/A", "NAN", "NULL", "NONE", "-"},
	}
}

// CleanerConfigFrom builds the cleaner rules from the application config.
func CleanerConfigFrom(cfg *config.Config, saleLabels []string) (CleanerConfig, error) {
	cc := DefaultCleanerConfig(cfg.BedroomThreshold, saleLabels)
	if len(cfg.DedupColumns) > 0 {
		cc.DedupColumns = cfg.DedupColumns
	}
	extra, err := ParseOutlierRules(cfg.OutlierRules)
	if err != nil {
		return cc, err
	}
	cc.OutlierRules = append(cc.OutlierRules, extra...)
	return cc, nil
}

// CleanStats counts what each step removed.
type CleanStats struct {
	Loaded            int
	EmptyDropped      int
	DuplicatesDropped int
	OutliersDropped   int
	Written           int
}

// Cleaner applies the cleaning rules to a property table.
type Cleaner struct {
	cfg    CleanerConfig
	nulls  map[string]bool
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given rules and logger.
func NewCleaner(cfg CleanerConfig, logger *utils.Logger) *Cleaner {
	nulls := make(map[string]bool, len(cfg.NullMarkers))
	for _, m := range cfg.NullMarkers {
		nulls[strings.ToUpper(strings.TrimSpace(m))] = true
	}
	return &Cleaner{cfg: cfg, nulls: nulls, logger: logger}
}

// Clean runs every step over t in place and returns it. Rows keep their
// relative order.
func (c *Cleaner) Clean(t *models.Table) (*models.Table, CleanStats) {
	stats := CleanStats{Loaded: t.Len()}

	stats.EmptyDropped = c.dropEmpty(t)
	stats.DuplicatesDropped = c.dedup(t)
	c.normalizeTypes(t)
	stats.OutliersDropped = c.dropOutliers(t)
	c.normalizeNulls(t)
	// Normalization can null out the last values of a row.
	stats.EmptyDropped += c.dropEmpty(t)
	stats.Written = t.Len()

	c.logger.Info("[cleaner] Cleaned %d → %d rows (empty %d, duplicates %d, outliers %d)",
		stats.Loaded, stats.Written, stats.EmptyDropped, stats.DuplicatesDropped, stats.OutliersDropped)
	return t, stats
}

func (c *Cleaner) dropEmpty(t *models.Table) int {
	return t.Filter(func(row []models.Value) bool {
		return !models.RowIsEmpty(row)
	})
}

// dedup keeps the first row of each key. Keys are compared in their
// canonical form and null equals null.
func (c *Cleaner) dedup(t *models.Table) int {
	var idx []int
	for _, col := range c.cfg.DedupColumns {
		if i := t.Column(col); i >= 0 {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, t.Len())
	return t.Filter(func(row []models.Value) bool {
		var b strings.Builder
		for _, i := range idx {
			v := c.canonical(t.Columns[i], row[i])
			if v.IsNull() {
				b.WriteString("\x00")
			} else {
				b.WriteString("\x01")
				b.WriteString(v.String())
			}
			b.WriteString("\x1f")
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}

func (c *Cleaner) normalizeTypes(t *models.Table) {
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			row[i] = c.normalizeCell(col, row[i])
		}
	}
}

func (c *Cleaner) normalizeCell(col string, v models.Value) models.Value {
	if v.IsNull() {
		return v
	}
	if contains(c.cfg.NumericColumns, col) {
		return normalizeNumber(v.String())
	}
	if contains(c.cfg.BooleanColumns, col) {
		return normalizeBool(v.String())
	}
	if set, ok := c.cfg.Categorical[col]; ok {
		return normalizeCategory(v.String(), set)
	}
	return v
}

func (c *Cleaner) dropOutliers(t *models.Table) int {
	dropped := 0
	for _, rule := range c.cfg.OutlierRules {
		i := t.Column(rule.Column)
		if i < 0 {
			continue
		}
		n := t.Filter(func(row []models.Value) bool {
			return !rule.trips(row[i])
		})
		if n > 0 {
			c.logger.Debug("[cleaner] Rule %s dropped %d rows", rule, n)
		}
		dropped += n
	}
	return dropped
}

// normalizeNulls turns leftover marker text such as "N/A" into null.
func (c *Cleaner) normalizeNulls(t *models.Table) {
	for _, row := range t.Rows {
		for i, v := range row {
			row[i] = c.nullIfMarker(v)
		}
	}
}

func (c *Cleaner) nullIfMarker(v models.Value) models.Value {
	if !v.IsNull() && c.nulls[strings.ToUpper(v.String())] {
		return models.Null()
	}
	return v
}

// canonical is the value a cell ends up with after every step.
func (c *Cleaner) canonical(col string, v models.Value) models.Value {
	return c.nullIfMarker(c.normalizeCell(col, v))
}

func normalizeNumber(s string) models.Value {
	f, err := strconv.ParseFloat(numberNoise.Replace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Null()
	}
	return models.Number(f)
}

func normalizeBool(s string) models.Value {
	var b bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "1.0":
		b = true
	case "false", "no", "n", "0", "0.0":
		b = false
	default:
		return models.Null()
	}
	return models.Bool(&b)
}

// normalizeCategory collapses whitespace. With a closed set the value takes
// the set's spelling or becomes null; otherwise it is upper-cased.
func normalizeCategory(s string, set []string) models.Value {
	s = strings.Join(strings.Fields(s), " ")
	if set == nil {
		return models.Text(strings.ToUpper(s))
	}
	for _, label := range set {
		if strings.EqualFold(s, label) {
			return models.Text(label)
		}
	}
	return models.Null()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
