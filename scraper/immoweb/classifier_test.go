package immoweb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRulesFromFlags(t *testing.T) {
	rules := RulesFromFlags([]string{"isPublicSale", "isNewlyBuilt"})

	if len(rules) != 2 {
		t.Fatalf("rules: got %d, want 2", len(rules))
	}
	if rules[0].Label != "PublicSale" || rules[0].Flag != "isPublicSale" {
		t.Errorf("rules[0]: got %+v", rules[0])
	}
	if len(rules[0].Keywords) == 0 {
		t.Error("PublicSale should carry heading keywords")
	}
	if rules[1].Label != "NewlyBuilt" || len(rules[1].Keywords) != 0 {
		t.Errorf("rules[1]: got %+v", rules[1])
	}
}

func TestClassify(t *testing.T) {
	c := defaultClassifier()

	tests := []struct {
		name    string
		title   string
		payload string
		want    string
	}{
		{
			name:    "flag",
			title:   "House for sale",
			payload: `{"flags": {"isNotarySale": true}}`,
			want:    "NotarySale",
		},
		{
			name:    "first flag in rule order",
			title:   "House for sale",
			payload: `{"flags": {"isNewlyBuilt": true, "isPublicSale": true}}`,
			want:    "PublicSale",
		},
		{
			name:    "flag beats heading keyword",
			title:   "Public sale - house",
			payload: `{"flags": {"isLifeAnnuitySale": true}}`,
			want:    "LifeAnnuitySale",
		},
		{
			name:    "heading keyword",
			title:   "Vente publique - Maison",
			payload: `{"flags": {"isPublicSale": false}}`,
			want:    "PublicSale",
		},
		{
			name:    "non-boolean flag ignored",
			title:   "House for sale",
			payload: `{"flags": {"isPublicSale": "yes"}}`,
			want:    "StandardSale",
		},
		{
			name:    "fallback",
			title:   "House for sale",
			payload: `{"flags": {}}`,
			want:    "StandardSale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse("https://www.immoweb.be/en/classified/1", listingPage(tt.title, tt.payload))
			if got := c.Classify(p); got != tt.want {
				t.Errorf("Classify: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyWithoutPayload(t *testing.T) {
	c := defaultClassifier()

	p := mustParse("https://www.immoweb.be/en/classified/1",
		[]byte("<html><head><title>Lijfrente - woning</title></head></html>"))
	if got := c.Classify(p); got != "LifeAnnuitySale" {
		t.Errorf("Classify: got %q, want LifeAnnuitySale", got)
	}

	if got := c.Classify(nil); got != "StandardSale" {
		t.Errorf("Classify(nil): got %q, want StandardSale", got)
	}
}

func TestClassifyAlwaysInLabels(t *testing.T) {
	c := defaultClassifier()
	labels := make(map[string]bool)
	for _, l := range c.Labels() {
		labels[l] = true
	}

	payloads := []string{
		`{"flags": {"isUnderOption": true}}`,
		`{"flags": {"isInvestmentProject": true}}`,
		`{}`,
		`not json`,
	}
	for _, payload := range payloads {
		p := mustParse("https://www.immoweb.be/en/classified/1", listingPage("Listing", payload))
		if got := c.Classify(p); !labels[got] {
			t.Errorf("Classify(%s) = %q, not in %v", payload, got, c.Labels())
		}
	}
}

func TestLabels(t *testing.T) {
	c := NewSaleClassifier(RulesFromFlags([]string{"isPublicSale", "isNotarySale", "isPublicSale"}), "StandardSale")

	want := []string{"PublicSale", "NotarySale", "StandardSale"}
	if diff := cmp.Diff(want, c.Labels()); diff != "" {
		t.Errorf("Labels mismatch (-want +got):\n%s", diff)
	}
}
