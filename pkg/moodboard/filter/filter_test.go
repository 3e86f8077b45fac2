package filter

import (
	"errors"
	"testing"

	"github.com/moodworks/moodboard/pkg/moodboard/internalerr"
)

type mapEnv map[string]Value

func (m mapEnv) Lookup(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

var row = mapEnv{
	"origin":   String("Reddit"),
	"subject":  String("sci.med"),
	"toxic":    Bool(true),
	"insult":   Bool(false),
	"positive": Bool(true),
	"count":    Number(7),
}

func evalOn(t *testing.T, input string, env Env) bool {
	t.Helper()
	prog, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	got, err := prog.Eval(env)
	if err != nil {
		t.Fatalf("Eval(%q): %v", input, err)
	}
	return got
}

func TestEval(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{`origin == "Reddit"`, true},
		{`origin == 'Telegram'`, false},
		{`origin != "Telegram"`, true},
		{`toxic`, true},
		{`not insult`, true},
		{`toxic and positive`, true},
		{`toxic and insult`, false},
		{`insult or positive`, true},
		{`toxic and not insult`, true},
		{`subject in ("sci.med", "sci.space")`, true},
		{`subject in ("talk.politics.misc")`, false},
		{`count > 5`, true},
		{`count <= 6`, false},
		{`count >= 7 and count < 8`, true},
		{`subject < "sci.zzz"`, true},
		{`(insult or toxic) and origin == "Reddit"`, true},
		{`toxic == true`, true},
		{`insult == false`, true},
		{`not (origin == "Reddit" and insult)`, true},
		{`count in (6, 7, 8)`, true},
	}
	for _, tc := range cases {
		if got := evalOn(t, tc.input, row); got != tc.want {
			t.Errorf("%q = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		``,
		`origin =`,
		`origin = "Reddit"`,
		`origin == `,
		`(toxic`,
		`toxic and`,
		`subject in "sci.med"`,
		`subject in ()`,
		`subject in ("a" "b")`,
		`"unterminated`,
		`toxic ^ insult`,
		`origin == "Reddit" extra`,
	}
	for _, input := range inputs {
		_, err := Parse(input)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", input)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Parse(%q) error %T, want *ParseError", input, err)
		}
		if !errors.Is(err, internalerr.ErrBadFilter) {
			t.Errorf("Parse(%q) error does not unwrap to ErrBadFilter", input)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	inputs := []string{
		`nonexistent`,
		`nonexistent == "x"`,
		`origin == 5`,
		`origin and toxic`,
		`not origin`,
		`toxic < insult`,
		`origin`,
		`count`,
		`subject in (1, 2)`,
	}
	for _, input := range inputs {
		prog, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if _, err := prog.Eval(row); err == nil {
			t.Errorf("Eval(%q) succeeded, want error", input)
		} else if !errors.Is(err, internalerr.ErrBadFilter) {
			t.Errorf("Eval(%q) error does not unwrap to ErrBadFilter", input)
		}
	}
}

func TestShortCircuitSkipsBadBranch(t *testing.T) {
	// The right side would fail on lookup, but the left side decides.
	if got := evalOn(t, `insult and nonexistent`, row); got {
		t.Error("insult and nonexistent = true, want false")
	}
	if got := evalOn(t, `toxic or nonexistent`, row); !got {
		t.Error("toxic or nonexistent = false, want true")
	}
}

func TestEscapedQuotes(t *testing.T) {
	env := mapEnv{"subject": String(`it's`)}
	if got := evalOn(t, `subject == 'it\'s'`, env); !got {
		t.Error("escaped quote literal did not match")
	}
}
