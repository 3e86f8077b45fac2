// Package aggregate groups annotated rows by (origin, subject) and
// computes per-group counts and label sums.
package aggregate

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/moodworks/moodboard/pkg/moodboard/annotate"
	"github.com/moodworks/moodboard/pkg/moodboard/classify"
)

// Group is one (origin, subject) bucket. Toxicity sums align to
// classify.ToxicityLabels, Sentiment sums to classify.SentimentLabels.
type Group struct {
	Origin    string
	Subject   string
	Count     int64
	Toxicity  [6]int64
	Sentiment [3]int64
}

// Result is the aggregation output, ordered by (origin, subject).
type Result struct {
	Groups []Group
}

// Aggregate buckets every table row. Output order is deterministic:
// ascending by origin, then subject.
func Aggregate(t *annotate.Table) Result {
	type key struct {
		origin, subject string
	}

	buckets := make(map[key]*Group)
	for i := range t.Rows {
		row := &t.Rows[i]
		k := key{row.Origin, row.Subject}
		g, ok := buckets[k]
		if !ok {
			g = &Group{Origin: row.Origin, Subject: row.Subject}
			buckets[k] = g
		}

		g.Count++
		for j, set := range row.Toxicity {
			if set {
				g.Toxicity[j]++
			}
		}
		for j, set := range row.Sentiment {
			if set {
				g.Sentiment[j]++
			}
		}
	}

	res := Result{Groups: make([]Group, 0, len(buckets))}
	for _, g := range buckets {
		res.Groups = append(res.Groups, *g)
	}
	sort.Slice(res.Groups, func(i, j int) bool {
		if res.Groups[i].Origin != res.Groups[j].Origin {
			return res.Groups[i].Origin < res.Groups[j].Origin
		}
		return res.Groups[i].Subject < res.Groups[j].Subject
	})
	return res
}

// columns lists the numeric column names in their fixed serialization
// order: count, the toxicity sums, then the sentiment sums.
func columns() []string {
	cols := []string{"count"}
	cols = append(cols, classify.ToxicityLabels...)
	cols = append(cols, classify.SentimentLabels...)
	return cols
}

// values flattens a group's numeric columns in the same order as
// columns().
func (g *Group) values() []int64 {
	vals := make([]int64, 0, 1+len(g.Toxicity)+len(g.Sentiment))
	vals = append(vals, g.Count)
	vals = append(vals, g.Toxicity[:]...)
	vals = append(vals, g.Sentiment[:]...)
	return vals
}

type schemaField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type tableSchema struct {
	Fields     []schemaField `json:"fields"`
	PrimaryKey []string      `json:"primaryKey"`
}

type tableDoc struct {
	Schema tableSchema       `json:"schema"`
	Data   []json.RawMessage `json:"data"`
}

// MarshalTable serializes the result in table orientation: an explicit
// schema block plus one record per group, with a stable column order.
func (r Result) MarshalTable() ([]byte, error) {
	schema := tableSchema{
		Fields: []schemaField{
			{Name: "origin", Type: "string"},
			{Name: "subject", Type: "string"},
		},
		PrimaryKey: []string{"origin", "subject"},
	}
	for _, col := range columns() {
		schema.Fields = append(schema.Fields, schemaField{Name: col, Type: "integer"})
	}

	doc := tableDoc{Schema: schema, Data: make([]json.RawMessage, 0, len(r.Groups))}
	cols := columns()
	for i := range r.Groups {
		g := &r.Groups[i]

		// Build each record by hand so field order follows the schema;
		// encoding a map would lose it.
		record := []byte("{")
		record = appendJSONField(record, "origin", g.Origin)
		record = append(record, ',')
		record = appendJSONField(record, "subject", g.Subject)
		for j, val := range g.values() {
			record = append(record, ',')
			record = appendJSONNumber(record, cols[j], val)
		}
		record = append(record, '}')
		doc.Data = append(doc.Data, record)
	}

	return json.MarshalIndent(doc, "", "  ")
}

func appendJSONField(buf []byte, name, value string) []byte {
	key, _ := json.Marshal(name)
	val, _ := json.Marshal(value)
	buf = append(buf, key...)
	buf = append(buf, ':')
	return append(buf, val...)
}

func appendJSONNumber(buf []byte, name string, value int64) []byte {
	key, _ := json.Marshal(name)
	buf = append(buf, key...)
	buf = append(buf, ':')
	return append(buf, []byte(fmt.Sprintf("%d", value))...)
}
