package query

import (
	"errors"
	"reflect"
	"testing"

	"pkt.systems/hconsole/schema"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		placeholders int
		wantErr      bool
	}{
		{name: "simple", text: "SELECT * FROM users", placeholders: 0},
		{name: "trimmed", text: "  SELECT 1  ", placeholders: 0},
		{name: "placeholders", text: "SELECT * FROM t WHERE a = ? AND b IN (?, ?)", placeholders: 3},
		{name: "quoted placeholder", text: "SELECT * FROM t WHERE a = '?' AND b = ?", placeholders: 1},
		{name: "escaped quote", text: `SELECT * FROM t WHERE a = 'it\'s'`, placeholders: 0},
		{name: "empty", text: "   ", wantErr: true},
		{name: "open quote", text: "SELECT 'x", wantErr: true},
		{name: "open paren", text: "SELECT count(*", wantErr: true},
		{name: "close paren", text: "SELECT 1)", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Compile(tc.text)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidQuery) || !errors.Is(err, schema.ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if q.Placeholders() != tc.placeholders {
				t.Fatalf("expected %d placeholders, got %d", tc.placeholders, q.Placeholders())
			}
		})
	}
}

func TestParameterize(t *testing.T) {
	q, err := Compile("SELECT * FROM t WHERE a = ? AND b = ?")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	wire, err := q.Parameterize("x", int64(2))
	if err != nil {
		t.Fatalf("parameterize: %v", err)
	}
	if !wire.Parameterized || !reflect.DeepEqual(wire.Parameters, []any{"x", int64(2)}) {
		t.Fatalf("unexpected wire query %#v", wire)
	}
	if _, err := q.Parameterize("only one"); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected arity error, got %v", err)
	}
	plain := q.Queryable()
	if plain.Parameterized || plain.Query != q.String() {
		t.Fatalf("unexpected plain query %#v", plain)
	}
}
