package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestRunScenarios(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		opts         Options
		wantSelected []Entry
		wantSkipped  []string
		wantUnique   int
	}{
		{
			name: "case variants collapse",
			text: "a@x.com, B@X.com",
			opts: Options{MaxPerDomain: 5},
			wantSelected: []Entry{
				{Domain: "x.com", Email: "a@x.com", Type: TypeGeneral},
				{Domain: "x.com", Email: "b@x.com", Type: TypeGeneral},
			},
			wantSkipped: []string{},
			wantUnique:  2,
		},
		{
			name: "priority wins the single slot",
			text: "ceo@x.com bob@x.com alice@x.com",
			opts: Options{MaxPerDomain: 1, Keywords: []string{"ceo"}},
			wantSelected: []Entry{
				{Domain: "x.com", Email: "ceo@x.com", Type: TypePriority},
			},
			wantSkipped: []string{"bob@x.com", "alice@x.com"},
			wantUnique:  3,
		},
		{
			name:         "no addresses",
			text:         "there is nothing here at all",
			opts:         Options{MaxPerDomain: 5},
			wantSelected: []Entry{},
			wantSkipped:  []string{},
			wantUnique:   0,
		},
		{
			name: "same address different case",
			text: "Foo@Bar.com foo@bar.com",
			opts: Options{MaxPerDomain: 5},
			wantSelected: []Entry{
				{Domain: "bar.com", Email: "foo@bar.com", Type: TypeGeneral},
			},
			wantSkipped: []string{},
			wantUnique:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Run(tc.text, tc.opts)

			if !reflect.DeepEqual(res.Selected, tc.wantSelected) {
				t.Errorf("Selected = %v, want %v", res.Selected, tc.wantSelected)
			}
			if !reflect.DeepEqual(res.Skipped, tc.wantSkipped) {
				t.Errorf("Skipped = %v, want %v", res.Skipped, tc.wantSkipped)
			}
			if res.Summary.UniqueTotal != tc.wantUnique {
				t.Errorf("UniqueTotal = %d, want %d", res.Summary.UniqueTotal, tc.wantUnique)
			}
			if res.Summary.SelectedCount != len(tc.wantSelected) {
				t.Errorf("SelectedCount = %d, want %d", res.Summary.SelectedCount, len(tc.wantSelected))
			}
			if res.Summary.SkippedCount != len(tc.wantSkipped) {
				t.Errorf("SkippedCount = %d, want %d", res.Summary.SkippedCount, len(tc.wantSkipped))
			}
		})
	}
}

func TestRunEmpty(t *testing.T) {
	res := Run("", DefaultOptions())

	if !res.Empty() {
		t.Error("Empty() = false, want true")
	}
	if res.Summary != (Summary{}) {
		t.Errorf("Summary = %+v, want zero", res.Summary)
	}
}

func TestRunSummary(t *testing.T) {
	text := "CEO@acme.io bob@acme.io bob@acme.io amy@acme.io founder@beta.dev x@beta.dev"
	res := Run(text, Options{MaxPerDomain: 2, Keywords: []string{"ceo", "founder"}})

	want := Summary{
		Detected:      6,
		UniqueTotal:   5,
		SelectedCount: 4,
		SkippedCount:  1,
		PriorityCount: 2,
		DomainCount:   2,
	}
	if res.Summary != want {
		t.Errorf("Summary = %+v, want %+v", res.Summary, want)
	}
	if !reflect.DeepEqual(res.Skipped, []string{"bob@acme.io"}) {
		t.Errorf("Skipped = %v, want [bob@acme.io]", res.Skipped)
	}
}

func TestRunIndependent(t *testing.T) {
	first := Run("a@x.com b@x.com", Options{MaxPerDomain: 1})
	second := Run("c@y.com", Options{MaxPerDomain: 1})

	if len(second.Selected) != 1 || second.Selected[0].Email != "c@y.com" {
		t.Errorf("second run leaked state: %v", second.Selected)
	}
	if len(first.Skipped) != 1 || first.Skipped[0] != "b@x.com" {
		t.Errorf("first run changed: %v", first.Skipped)
	}
}

func TestRunLargeInput(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20000; i++ {
		b.WriteString("user")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteByte(byte('a' + i%26))
		b.WriteString("@d")
		b.WriteByte(byte('a' + i%10))
		b.WriteString(".com ")
	}

	res := Run(b.String(), Options{MaxPerDomain: 200})
	if res.Summary.DomainCount != 10 {
		t.Errorf("DomainCount = %d, want 10", res.Summary.DomainCount)
	}
	if res.Summary.SelectedCount+res.Summary.SkippedCount != res.Summary.UniqueTotal {
		t.Errorf("selected %d + skipped %d != unique %d",
			res.Summary.SelectedCount, res.Summary.SkippedCount, res.Summary.UniqueTotal)
	}
}
