package classify

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
)

// Linear model kinds.
const (
	Multiclass = "multiclass" // argmax over labels, exactly one predicted
	Multilabel = "multilabel" // independent threshold per label, zero or more
)

const (
	artifactMagic   = "MBLM"
	artifactVersion = 1
)

// Linear is a linear bag-of-words classifier over hashed token
// features, loaded from a versioned binary artifact. It satisfies
// Adapter and is safe for concurrent use once loaded.
type Linear struct {
	kind     string
	labels   []string
	features int
	weights  []float32 // row-major [len(labels), features+1]; last column is bias
}

// NewLinear builds a model from in-memory parameters. Used by tests and
// by training exporters; services load artifacts with LoadLinear.
func NewLinear(kind string, labels []string, features int, weights []float32) (*Linear, error) {
	m := &Linear{kind: kind, labels: labels, features: features, weights: weights}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadLinear reads a model artifact from disk. A corrupt or
// incompatible artifact is fatal: the error wraps ErrBadArtifact.
//
// Layout: 4-byte magic "MBLM", uint32 LE version, uint64 LE header
// length, JSON header {"kind","labels","features"}, then float32 LE
// weights of shape [len(labels), features+1] with bias in the last
// column.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	if len(data) < 16 {
		return nil, fmt.Errorf("classify: %w: file too small (%d bytes)", internalerr.ErrBadArtifact, len(data))
	}
	if string(data[:4]) != artifactMagic {
		return nil, fmt.Errorf("classify: %w: bad magic %q", internalerr.ErrBadArtifact, data[:4])
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != artifactVersion {
		return nil, fmt.Errorf("classify: %w: unsupported version %d", internalerr.ErrBadArtifact, v)
	}

	// Compare against the remaining bytes rather than adding to
	// headerLen, which a hostile value could overflow past the check.
	headerLen := binary.LittleEndian.Uint64(data[8:16])
	if headerLen > uint64(len(data))-16 {
		return nil, fmt.Errorf("classify: %w: header length %d exceeds file size", internalerr.ErrBadArtifact, headerLen)
	}

	var header struct {
		Kind     string   `json:"kind"`
		Labels   []string `json:"labels"`
		Features int      `json:"features"`
	}
	if err := json.Unmarshal(data[16:16+headerLen], &header); err != nil {
		return nil, fmt.Errorf("classify: %w: header: %v", internalerr.ErrBadArtifact, err)
	}

	payload := data[16+headerLen:]
	want := len(header.Labels) * (header.Features + 1) * 4
	if len(payload) != want {
		return nil, fmt.Errorf("classify: %w: weight payload is %d bytes, want %d", internalerr.ErrBadArtifact, len(payload), want)
	}

	weights := make([]float32, want/4)
	for i := range weights {
		bits := binary.LittleEndian.Uint32(payload[i*4 : i*4+4])
		weights[i] = math.Float32frombits(bits)
	}

	m := &Linear{
		kind:     header.Kind,
		labels:   header.Labels,
		features: header.Features,
		weights:  weights,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes the model to path in the artifact layout documented on
// LoadLinear.
func (m *Linear) Save(path string) error {
	if err := m.validate(); err != nil {
		return err
	}

	header, err := json.Marshal(struct {
		Kind     string   `json:"kind"`
		Labels   []string `json:"labels"`
		Features int      `json:"features"`
	}{m.kind, m.labels, m.features})
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	buf := make([]byte, 0, 16+len(header)+len(m.weights)*4)
	buf = append(buf, artifactMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, artifactVersion)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(header)))
	buf = append(buf, header...)
	for _, w := range m.weights {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(w))
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	return nil
}

func (m *Linear) validate() error {
	if m.kind != Multiclass && m.kind != Multilabel {
		return fmt.Errorf("classify: %w: unknown kind %q", internalerr.ErrBadArtifact, m.kind)
	}
	if len(m.labels) == 0 {
		return fmt.Errorf("classify: %w: no labels", internalerr.ErrBadArtifact)
	}
	if m.features <= 0 {
		return fmt.Errorf("classify: %w: feature count %d", internalerr.ErrBadArtifact, m.features)
	}
	if len(m.weights) != len(m.labels)*(m.features+1) {
		return fmt.Errorf("classify: %w: weight length %d does not match %d labels x %d features",
			internalerr.ErrBadArtifact, len(m.weights), len(m.labels), m.features)
	}
	return nil
}

// Labels returns the model's label vocabulary in output order.
func (m *Linear) Labels() []string { return m.labels }

// Predict implements Adapter.
func (m *Linear) Predict(texts []string) ([][]string, error) {
	out := make([][]string, len(texts))
	for i, text := range texts {
		counts := m.featureCounts(text)

		switch m.kind {
		case Multilabel:
			var set []string
			for l := range m.labels {
				if m.score(l, counts) > 0 {
					set = append(set, m.labels[l])
				}
			}
			out[i] = set
		case Multiclass:
			best, bestScore := 0, m.score(0, counts)
			for l := 1; l < len(m.labels); l++ {
				if s := m.score(l, counts); s > bestScore {
					best, bestScore = l, s
				}
			}
			out[i] = []string{m.labels[best]}
		}
	}
	return out, nil
}

// score computes the decision value for one label. A positive value
// corresponds to sigmoid probability above 0.5.
func (m *Linear) score(label int, counts map[int]float32) float32 {
	row := m.weights[label*(m.features+1) : (label+1)*(m.features+1)]
	sum := row[m.features] // bias
	for idx, c := range counts {
		sum += row[idx] * c
	}
	return sum
}

// featureCounts tokenizes text and hashes tokens into feature slots.
func (m *Linear) featureCounts(text string) map[int]float32 {
	counts := make(map[int]float32)
	for _, tok := range tokenize(text) {
		counts[m.featureIndex(tok)]++
	}
	return counts
}

func (m *Linear) featureIndex(token string) int {
	h := fnv.New32a()
	h.Write([]byte(token))
	return int(h.Sum32() % uint32(m.features))
}

// tokenize lowercases and splits on anything that is not a letter or
// digit, matching the feature extraction used at training time.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
