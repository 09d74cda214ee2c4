package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cesargomez89/movielog/internal/faults"
)

// MovieInt is an integer-or-range value used for years and durations, both
// as stored single values and as search criteria. It is built from a literal
// of the form "<element>(, <element>)*" where each element is either a plain
// integer or "<lo>-<hi>". The value behaves as the set union of all implied
// integers; display reproduces the original literal.
type MovieInt struct {
	spans   []span
	literal string
}

type span struct {
	lo, hi int
}

// NewMovieInt returns the singleton set {n}.
func NewMovieInt(n int) MovieInt {
	return MovieInt{
		spans:   []span{{lo: n, hi: n}},
		literal: strconv.Itoa(n),
	}
}

// ParseMovieInt builds a MovieInt from its string literal.
func ParseMovieInt(s string) (MovieInt, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return MovieInt{}, faults.New(faults.MalformedRange, "empty integer literal", s)
	}

	var spans []span
	for _, elem := range strings.Split(trimmed, ",") {
		elem = strings.TrimSpace(elem)
		sp, err := parseSpan(elem)
		if err != nil {
			return MovieInt{}, err
		}
		spans = append(spans, sp)
	}
	return MovieInt{spans: spans, literal: trimmed}, nil
}

func parseSpan(elem string) (span, error) {
	if !strings.Contains(elem, "-") {
		n, err := strconv.Atoi(elem)
		if err != nil {
			return span{}, faults.New(faults.MalformedRange, "not an integer", elem)
		}
		return span{lo: n, hi: n}, nil
	}

	parts := strings.Split(elem, "-")
	if len(parts) != 2 {
		return span{}, faults.New(faults.MalformedRange, "range must have exactly two endpoints", elem)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return span{}, faults.New(faults.MalformedRange, "range endpoint is not an integer", elem)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return span{}, faults.New(faults.MalformedRange, "range endpoint is not an integer", elem)
	}
	if lo > hi {
		return span{}, faults.New(faults.MalformedRange, "range endpoints are out of order", elem)
	}
	return span{lo: lo, hi: hi}, nil
}

// IsZero reports whether m carries no value at all.
func (m MovieInt) IsZero() bool {
	return len(m.spans) == 0
}

// Cardinality is the number of distinct integers in the set.
func (m MovieInt) Cardinality() int {
	total := 0
	for _, sp := range m.merged() {
		total += sp.hi - sp.lo + 1
	}
	return total
}

// ToInt converts to a single integer. It fails unless the set holds exactly
// one value.
func (m MovieInt) ToInt() (int, error) {
	if m.Cardinality() != 1 {
		return 0, faults.New(faults.InvalidIntCast, "value is not a single integer", m.literal)
	}
	return m.spans[0].lo, nil
}

// Contains reports whether x is in the set.
func (m MovieInt) Contains(x int) bool {
	for _, sp := range m.spans {
		if x >= sp.lo && x <= sp.hi {
			return true
		}
	}
	return false
}

// Values returns the distinct integers in ascending order.
func (m MovieInt) Values() []int {
	var vals []int
	for _, sp := range m.merged() {
		for x := sp.lo; x <= sp.hi; x++ {
			vals = append(vals, x)
		}
	}
	return vals
}

// String reproduces the original literal.
func (m MovieInt) String() string {
	return m.literal
}

// merged returns the spans sorted and coalesced so overlapping ranges are
// not counted twice.
func (m MovieInt) merged() []span {
	if len(m.spans) == 0 {
		return nil
	}
	sorted := make([]span, len(m.spans))
	copy(sorted, m.spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].lo < sorted[j].lo })

	out := []span{sorted[0]}
	for _, sp := range sorted[1:] {
		last := &out[len(out)-1]
		if sp.lo <= last.hi+1 {
			if sp.hi > last.hi {
				last.hi = sp.hi
			}
			continue
		}
		out = append(out, sp)
	}
	return out
}

// MarshalJSON encodes the literal so criteria round-trip through the API.
func (m MovieInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.literal)
}

// UnmarshalJSON accepts either a plain number or a literal string.
func (m *MovieInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*m = NewMovieInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("movie int must be a number or string: %w", err)
	}
	parsed, err := ParseMovieInt(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
