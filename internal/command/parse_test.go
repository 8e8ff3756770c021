package command

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseClassifiesParameters(t *testing.T) {
	cmd := Parse(`login admin "secret pass" 42 3.14 true null`, "")
	if cmd.Name != "login" {
		t.Fatalf("expected name login, got %q", cmd.Name)
	}
	want := []any{"admin", "secret pass", int64(42), 3.14, true, nil}
	if !reflect.DeepEqual(cmd.Params, want) {
		t.Fatalf("expected %#v, got %#v", want, cmd.Params)
	}
}

func TestParseTokens(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	tests := []struct {
		name  string
		token string
		want  any
	}{
		{name: "false", token: "false", want: false},
		{name: "negative int", token: "-17", want: int64(-17)},
		{name: "decimal", token: "-0.5", want: -0.5},
		{name: "exponent", token: "1.5e3", want: 1500.0},
		{name: "bare exponent", token: "2e2", want: 200.0},
		{name: "uuid", token: id.String(), want: id},
		{name: "overflow", token: "99999999999999999999", want: 1e20},
		{name: "word", token: "users", want: "users"},
		{name: "mixed case bool", token: "True", want: "True"},
		{name: "trailing dot", token: "1.", want: "1."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := Parse("cmd "+tc.token, "")
			if len(cmd.Params) != 1 {
				t.Fatalf("expected one param, got %#v", cmd.Params)
			}
			if !reflect.DeepEqual(cmd.Params[0], tc.want) {
				t.Fatalf("expected %#v, got %#v", tc.want, cmd.Params[0])
			}
		})
	}
}

func TestParseQuotedDate(t *testing.T) {
	cmd := Parse(`at "2024-03-01 10:20:30" "2024-03-01"`, "")
	want := time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local)
	got, ok := cmd.Params[0].(time.Time)
	if !ok || !got.Equal(want) {
		t.Fatalf("expected %v, got %#v", want, cmd.Params[0])
	}
	if cmd.Params[1] != "2024-03-01" {
		t.Fatalf("expected unparseable date to stay a string, got %#v", cmd.Params[1])
	}

	custom := Parse(`at "01/03/2024"`, "02/01/2006")
	if ts, ok := custom.Param(0).(time.Time); !ok || ts.Month() != time.March {
		t.Fatalf("expected custom layout to parse, got %#v", custom.Param(0))
	}
}

func TestParseEscapedQuote(t *testing.T) {
	cmd := Parse(`say "he said \"hi\"" done`, "")
	want := []any{`he said "hi"`, "done"}
	if !reflect.DeepEqual(cmd.Params, want) {
		t.Fatalf("expected %#v, got %#v", want, cmd.Params)
	}
}

func TestParseQuotedNumberStaysString(t *testing.T) {
	cmd := Parse(`find "42"`, "")
	if cmd.Params[0] != "42" {
		t.Fatalf("expected quoted number to stay a string, got %#v", cmd.Params[0])
	}
}

func TestParseUnterminatedQuote(t *testing.T) {
	cmd := Parse(`evaluate "SELECT * FROM t`, "")
	want := []any{"SELECT * FROM t"}
	if !reflect.DeepEqual(cmd.Params, want) {
		t.Fatalf("expected %#v, got %#v", want, cmd.Params)
	}
}

func TestParseEmptyLine(t *testing.T) {
	for _, line := range []string{"", "   ", "\t"} {
		cmd := Parse(line, "")
		if cmd.Name != "" || len(cmd.Params) != 0 {
			t.Fatalf("expected empty command for %q, got %#v", line, cmd)
		}
	}
}

func TestParsePreservesOrder(t *testing.T) {
	cmd := Parse(`run "a" 1 "b" 2 c`, "")
	want := []any{"a", int64(1), "b", int64(2), "c"}
	if !reflect.DeepEqual(cmd.Params, want) {
		t.Fatalf("expected %#v, got %#v", want, cmd.Params)
	}
	if cmd.Line != `run "a" 1 "b" 2 c` {
		t.Fatalf("expected raw line preserved, got %q", cmd.Line)
	}
}

func TestGroupRichText(t *testing.T) {
	segments, line := GroupRichText(`x "one two" y "three"`)
	if !reflect.DeepEqual(segments, []string{"one two", "three"}) {
		t.Fatalf("unexpected segments %#v", segments)
	}
	if line != `x "#0" y "#1"` {
		t.Fatalf("unexpected replaced line %q", line)
	}
}

func TestParamOutOfRange(t *testing.T) {
	cmd := Parse("next", "")
	if cmd.Param(0) != nil || cmd.Param(-1) != nil {
		t.Fatalf("expected nil for missing params")
	}
}
