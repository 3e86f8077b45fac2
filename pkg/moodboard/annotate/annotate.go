// Package annotate attaches classifier labels to corpus rows and
// exposes the resulting table to filtering and aggregation.
package annotate

import (
	"fmt"

	"github.com/moodworks/moodboard/pkg/moodboard/classify"
	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
	"github.com/moodworks/moodboard/pkg/moodboard/filter"
)

// Row is one corpus row with all annotation columns attached. The
// fixed-width boolean vectors are aligned to classify.ToxicityLabels
// and classify.SentimentLabels respectively.
type Row struct {
	Text      string
	Origin    string
	Toxicity  [6]bool
	Subject   string
	Archetype string // empty when the subject has no mapped archetype
	Sentiment [3]bool
}

// Table holds annotated rows in corpus order.
type Table struct {
	Rows []Row
}

// Classifiers bundles the three adapters applied during annotation.
type Classifiers struct {
	Toxicity  classify.Adapter
	Subject   classify.Adapter
	Sentiment classify.Adapter
}

// Build runs each classifier once over the full text column and
// assembles the annotated table. A classifier failure aborts the build;
// unlike malformed input rows during ingestion, it is never swallowed.
func Build(rows []corpus.Row, cls Classifiers) (*Table, error) {
	if err := validateColumns(); err != nil {
		return nil, err
	}

	texts := make([]string, len(rows))
	for i, row := range rows {
		texts[i] = row.Text
	}

	toxicity, err := cls.Toxicity.Predict(texts)
	if err != nil {
		return nil, fmt.Errorf("annotate: toxicity classifier: %w", err)
	}
	subjects, err := cls.Subject.Predict(texts)
	if err != nil {
		return nil, fmt.Errorf("annotate: subject classifier: %w", err)
	}
	sentiments, err := cls.Sentiment.Predict(texts)
	if err != nil {
		return nil, fmt.Errorf("annotate: sentiment classifier: %w", err)
	}
	for name, got := range map[string][][]string{
		"toxicity":  toxicity,
		"subject":   subjects,
		"sentiment": sentiments,
	} {
		if len(got) != len(rows) {
			return nil, fmt.Errorf("annotate: %s classifier returned %d results for %d rows", name, len(got), len(rows))
		}
	}

	table := &Table{Rows: make([]Row, len(rows))}
	for i, src := range rows {
		row := Row{Text: src.Text, Origin: src.Origin}

		for _, label := range toxicity[i] {
			if idx, ok := toxicityIndex[label]; ok {
				row.Toxicity[idx] = true
			}
		}

		if len(subjects[i]) > 0 {
			row.Subject = subjects[i][0]
			if a, ok := classify.Archetype(row.Subject); ok {
				row.Archetype = a
			}
		}

		// Coerce into the fixed vocabulary: an out-of-vocabulary
		// sentiment leaves every indicator false instead of failing.
		if len(sentiments[i]) > 0 {
			if idx, ok := sentimentIndex[sentiments[i][0]]; ok {
				row.Sentiment[idx] = true
			}
		}

		table.Rows[i] = row
	}
	return table, nil
}

// Filter returns a new table holding only rows the program matches.
// Evaluation errors surface on the first offending row.
func (t *Table) Filter(prog *filter.Program) (*Table, error) {
	out := &Table{}
	for i := range t.Rows {
		keep, err := prog.Eval(rowEnv{&t.Rows[i]})
		if err != nil {
			return nil, err
		}
		if keep {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out, nil
}

// rowEnv adapts a Row to the filter evaluation environment.
type rowEnv struct {
	row *Row
}

// Lookup implements filter.Env over the annotated column names.
func (e rowEnv) Lookup(name string) (filter.Value, bool) {
	switch name {
	case "text":
		return filter.String(e.row.Text), true
	case "origin":
		return filter.String(e.row.Origin), true
	case "subject":
		return filter.String(e.row.Subject), true
	case "archetype":
		return filter.String(e.row.Archetype), true
	}
	if idx, ok := toxicityIndex[name]; ok {
		return filter.Bool(e.row.Toxicity[idx]), true
	}
	if idx, ok := sentimentIndex[name]; ok {
		return filter.Bool(e.row.Sentiment[idx]), true
	}
	return filter.Value{}, false
}

var (
	toxicityIndex  = indexOf(classify.ToxicityLabels)
	sentimentIndex = indexOf(classify.SentimentLabels)
)

func indexOf(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, label := range labels {
		m[label] = i
	}
	return m
}

// Columns lists every addressable column of the annotated schema.
func Columns() []string {
	cols := []string{"text", "origin", "subject", "archetype"}
	cols = append(cols, classify.ToxicityLabels...)
	cols = append(cols, classify.SentimentLabels...)
	return cols
}

// validateColumns rejects duplicate column names across annotation
// stages. The fixed vocabularies keep the stages disjoint; this guards
// against a vocabulary change silently shadowing an earlier column.
func validateColumns() error {
	seen := make(map[string]struct{})
	for _, col := range Columns() {
		if _, dup := seen[col]; dup {
			return fmt.Errorf("annotate: duplicate column %q in schema", col)
		}
		seen[col] = struct{}{}
	}
	return nil
}
