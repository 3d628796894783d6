// Package dispatch turns command-protocol lines into calls against the
// engine's domain packages, and their results back into the protocol's
// response lines. It owns no storage itself — internal/catalog,
// internal/users, internal/orders, internal/seatmap and internal/booking
// do all of the real work; this package is just the wire format.
package dispatch

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Params holds a parsed command's -flag value pairs, keyed by the single
// letter that follows the dash.
type Params map[byte]string

// Get returns the value for flag, or "" if absent.
func (p Params) Get(flag byte) string {
	return p[flag]
}

// Has reports whether flag was supplied.
func (p Params) Has(flag byte) bool {
	_, ok := p[flag]
	return ok
}

// Int parses flag's value as an integer.
func (p Params) Int(flag byte) (int, error) {
	v, ok := p[flag]
	if !ok {
		return 0, errors.Errorf("missing -%c", flag)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse -%c value %q", flag, v)
	}
	return n, nil
}

// IntOr parses flag's value as an integer, returning def if flag is absent.
func (p Params) IntOr(flag byte, def int) (int, error) {
	if !p.Has(flag) {
		return def, nil
	}
	return p.Int(flag)
}

// Bool parses flag's "true"/"false" value, returning def if absent.
func (p Params) Bool(flag byte, def bool) bool {
	v, ok := p[flag]
	if !ok {
		return def
	}
	return v == "true"
}

// CSVInts parses flag's pipe-separated integer list (used by add_train's
// -p/-t schedule arrays).
func (p Params) CSVInts(flag byte) ([]int, error) {
	v, ok := p[flag]
	if !ok {
		return nil, errors.Errorf("missing -%c", flag)
	}
	parts := strings.Split(v, "|")
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "parse -%c element %q", flag, part)
		}
		out[i] = n
	}
	return out, nil
}

// CSVStrings parses flag's pipe-separated string list (used by
// add_train's -s stations array).
func (p Params) CSVStrings(flag byte) ([]string, error) {
	v, ok := p[flag]
	if !ok {
		return nil, errors.Errorf("missing -%c", flag)
	}
	return strings.Split(v, "|"), nil
}

// ParsedCommand is one parsed protocol line: "[timestamp] verb -f v ...".
type ParsedCommand struct {
	Timestamp int
	Verb      string
	Params    Params
}

// ParseLine parses a single command line.
func ParseLine(line string) (ParsedCommand, error) {
	line = strings.TrimSpace(line)
	open := strings.IndexByte(line, '[')
	close := strings.IndexByte(line, ']')
	if open != 0 || close < 0 {
		return ParsedCommand{}, errors.Errorf("malformed command line %q", line)
	}
	ts, err := strconv.Atoi(line[open+1 : close])
	if err != nil {
		return ParsedCommand{}, errors.Wrapf(err, "parse timestamp in %q", line)
	}

	rest := strings.Fields(line[close+1:])
	if len(rest) == 0 {
		return ParsedCommand{}, errors.Errorf("missing verb in %q", line)
	}
	verb := rest[0]
	params := Params{}
	for i := 1; i+1 < len(rest); i += 2 {
		flagTok := rest[i]
		if len(flagTok) != 2 || flagTok[0] != '-' {
			return ParsedCommand{}, errors.Errorf("malformed flag %q in %q", flagTok, line)
		}
		params[flagTok[1]] = rest[i+1]
	}

	return ParsedCommand{Timestamp: ts, Verb: verb, Params: params}, nil
}
