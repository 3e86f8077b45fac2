package classify

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
)

const testFeatures = 64

// buildModel crafts weights so that each label fires exactly on its
// trigger token. Bias is -1, trigger weight +2, so score is +1 with the
// trigger present and -1 without.
func buildModel(t *testing.T, kind string, triggers map[string]string) *Linear {
	t.Helper()

	var labels []string
	for label := range triggers {
		labels = append(labels, label)
	}
	// Map iteration order is fine here; tests key off label names.

	weights := make([]float32, len(labels)*(testFeatures+1))
	probe := &Linear{kind: kind, labels: labels, features: testFeatures, weights: weights}
	for i, label := range labels {
		row := weights[i*(testFeatures+1) : (i+1)*(testFeatures+1)]
		row[testFeatures] = -1
		row[probe.featureIndex(triggers[label])] = 2
	}

	m, err := NewLinear(kind, labels, testFeatures, weights)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	return m
}

func TestMultilabelPredict(t *testing.T) {
	m := buildModel(t, Multilabel, map[string]string{
		"toxic":  "scum",
		"insult": "idiot",
	})

	sets, err := m.Predict([]string{
		"you absolute idiot scum",
		"what a lovely day",
		"IDIOT!",
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if len(sets[0]) != 2 {
		t.Errorf("row 0 labels = %v, want both", sets[0])
	}
	if len(sets[1]) != 0 {
		t.Errorf("row 1 labels = %v, want none", sets[1])
	}
	// Tokenization lowercases and strips punctuation.
	if len(sets[2]) != 1 || sets[2][0] != "insult" {
		t.Errorf("row 2 labels = %v, want [insult]", sets[2])
	}
}

func TestMulticlassPredictAlwaysOneLabel(t *testing.T) {
	m := buildModel(t, Multiclass, map[string]string{
		"positive": "great",
		"negative": "awful",
		"neutral":  "okay",
	})

	sets, err := m.Predict([]string{
		"this is great",
		"awful experience",
		"",
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i, set := range sets {
		if len(set) != 1 {
			t.Fatalf("row %d: got %d labels, want exactly 1", i, len(set))
		}
	}
	if sets[0][0] != "positive" || sets[1][0] != "negative" {
		t.Errorf("got %v / %v", sets[0], sets[1])
	}
}

func TestArtifactRoundtrip(t *testing.T) {
	m := buildModel(t, Multiclass, map[string]string{
		"positive": "great",
		"negative": "awful",
	})

	path := filepath.Join(t.TempDir(), "sentiment.mblm")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadLinear(path)
	if err != nil {
		t.Fatalf("LoadLinear: %v", err)
	}

	want, _ := m.Predict([]string{"great stuff", "awful stuff"})
	got, err := loaded.Predict([]string{"great stuff", "awful stuff"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := range want {
		if len(got[i]) != 1 || got[i][0] != want[i][0] {
			t.Errorf("row %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoadLinearRejectsCorruptArtifacts(t *testing.T) {
	dir := t.TempDir()

	// A header length near MaxUint64 must fail the size check cleanly;
	// a wrapping 16+headerLen comparison would slice out of bounds.
	overflow := append([]byte(artifactMagic), make([]byte, 28)...)
	binary.LittleEndian.PutUint32(overflow[4:8], artifactVersion)
	binary.LittleEndian.PutUint64(overflow[8:16], ^uint64(0))

	cases := map[string][]byte{
		"truncated":         []byte("MB"),
		"badmagic":          append([]byte("NOPE"), make([]byte, 20)...),
		"headerlenoverflow": overflow,
	}
	for name, data := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadLinear(path); !errors.Is(err, internalerr.ErrBadArtifact) {
			t.Errorf("%s: err = %v, want ErrBadArtifact", name, err)
		}
	}

	if _, err := LoadLinear(filepath.Join(dir, "absent")); err == nil {
		t.Error("expected error for missing artifact")
	}
}

func TestArchetypeLookup(t *testing.T) {
	if a, ok := Archetype("rec.autos"); !ok || a != "vehicles" {
		t.Errorf("rec.autos -> %q, %v", a, ok)
	}
	if _, ok := Archetype("unknown.subject"); ok {
		t.Error("unmapped subject should report ok=false")
	}
}
