package annotate

import (
	"errors"
	"testing"

	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
	"github.com/moodworks/moodboard/pkg/moodboard/filter"
)

// stubAdapter returns canned label sets keyed by input text.
type stubAdapter struct {
	byText  map[string][]string
	invoked int
}

func (s *stubAdapter) Predict(texts []string) ([][]string, error) {
	s.invoked++
	out := make([][]string, len(texts))
	for i, text := range texts {
		out[i] = s.byText[text]
	}
	return out, nil
}

type failingAdapter struct{}

func (failingAdapter) Predict([]string) ([][]string, error) {
	return nil, errors.New("model exploded")
}

func testRows() []corpus.Row {
	return []corpus.Row{
		{Text: "a", Origin: "Reddit"},
		{Text: "b", Origin: "Telegram"},
	}
}

func testClassifiers() Classifiers {
	return Classifiers{
		Toxicity: &stubAdapter{byText: map[string][]string{
			"a": {"toxic", "insult"},
			"b": {},
		}},
		Subject: &stubAdapter{byText: map[string][]string{
			"a": {"sci.med"},
			"b": {"unknown.subject"},
		}},
		Sentiment: &stubAdapter{byText: map[string][]string{
			"a": {"positive"},
			"b": {"weird-label"},
		}},
	}
}

func TestBuildAnnotations(t *testing.T) {
	table, err := Build(testRows(), testClassifiers())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}

	a := table.Rows[0]
	if !a.Toxicity[0] || !a.Toxicity[4] {
		t.Errorf("row a toxicity = %v, want toxic+insult set", a.Toxicity)
	}
	if a.Toxicity[1] || a.Toxicity[2] || a.Toxicity[3] || a.Toxicity[5] {
		t.Errorf("row a has stray toxicity flags: %v", a.Toxicity)
	}
	if a.Subject != "sci.med" || a.Archetype != "science" {
		t.Errorf("row a subject/archetype = %q/%q", a.Subject, a.Archetype)
	}

	b := table.Rows[1]
	if b.Archetype != "" {
		t.Errorf("unmapped subject should give empty archetype, got %q", b.Archetype)
	}
}

func TestSentimentOneHot(t *testing.T) {
	table, err := Build(testRows(), testClassifiers())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// In-vocabulary label: exactly one indicator set.
	a := table.Rows[0]
	count := 0
	for _, set := range a.Sentiment {
		if set {
			count++
		}
	}
	if count != 1 || !a.Sentiment[0] {
		t.Errorf("row a sentiment = %v, want exactly positive", a.Sentiment)
	}

	// Out-of-vocabulary label coerces to all-false, never an error.
	b := table.Rows[1]
	if b.Sentiment != [3]bool{} {
		t.Errorf("row b sentiment = %v, want all false", b.Sentiment)
	}
}

func TestBuildPropagatesClassifierFailure(t *testing.T) {
	cls := testClassifiers()
	cls.Sentiment = failingAdapter{}
	if _, err := Build(testRows(), cls); err == nil {
		t.Fatal("classifier failure must not be swallowed")
	}
}

func TestFilterTable(t *testing.T) {
	table, err := Build(testRows(), testClassifiers())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	prog, err := filter.Parse(`origin == "Reddit"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := table.Filter(prog)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].Origin != "Reddit" {
		t.Fatalf("filtered rows = %v", got.Rows)
	}

	// Filtering must not disturb the source table.
	if len(table.Rows) != 2 {
		t.Errorf("source table mutated: %d rows", len(table.Rows))
	}

	prog, err = filter.Parse(`toxic and positive`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err = table.Filter(prog)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].Text != "a" {
		t.Fatalf("filtered rows = %v", got.Rows)
	}
}

func TestFilterUnknownColumn(t *testing.T) {
	table, err := Build(testRows(), testClassifiers())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	prog, err := filter.Parse(`bogus == "x"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := table.Filter(prog); err == nil {
		t.Fatal("expected evaluation error for unknown column")
	}
}

func TestColumnsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for _, col := range Columns() {
		if _, dup := seen[col]; dup {
			t.Fatalf("duplicate column %q", col)
		}
		seen[col] = struct{}{}
	}
}
