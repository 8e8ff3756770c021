package query

import (
	"errors"
	"fmt"
	"strings"

	"pkt.systems/hconsole/schema"
)

// ErrInvalidQuery is wrapped by every compile and parameterize failure.
var ErrInvalidQuery = fmt.Errorf("%w: invalid query", schema.ErrInvalidRequest)

// Placeholder marks a positional parameter in a query.
const Placeholder = '?'

// Query is a compiled query text. The server does the real planning; Compile
// only rejects text that cannot possibly be a query.
type Query struct {
	text         string
	placeholders int
}

// Compile validates text and returns a Query.
func Compile(text string) (Query, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Query{}, fmt.Errorf("%w: empty", ErrInvalidQuery)
	}
	placeholders, err := scan(trimmed)
	if err != nil {
		return Query{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return Query{text: trimmed, placeholders: placeholders}, nil
}

// String returns the normalised query text.
func (q Query) String() string { return q.text }

// Placeholders reports how many positional parameters the query expects.
func (q Query) Placeholders() int { return q.placeholders }

// Queryable returns the wire form of a plain query.
func (q Query) Queryable() *schema.Queryable {
	return &schema.Queryable{Query: q.text}
}

// Parameterize binds params to the query placeholders in order.
func (q Query) Parameterize(params ...any) (*schema.Queryable, error) {
	if len(params) != q.placeholders {
		return nil, fmt.Errorf("%w: expected %d parameters, got %d", ErrInvalidQuery, q.placeholders, len(params))
	}
	bound := make([]any, len(params))
	copy(bound, params)
	return &schema.Queryable{Query: q.text, Parameterized: true, Parameters: bound}, nil
}

func scan(text string) (int, error) {
	var (
		quote        byte
		depth        int
		placeholders int
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == '\\' && i+1 < len(text) {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return 0, errors.New("unbalanced parenthesis")
			}
		case Placeholder:
			placeholders++
		}
	}
	if quote != 0 {
		return 0, fmt.Errorf("unterminated %c quote", quote)
	}
	if depth != 0 {
		return 0, errors.New("unbalanced parenthesis")
	}
	return placeholders, nil
}
