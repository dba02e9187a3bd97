package steps

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/roach88/stepwise/internal/report"
)

// Param is one key/value pair shown next to a step.
type Param struct {
	Key   string
	Value any
}

// P is shorthand for Param{Key: key, Value: value}.
func P(key string, value any) Param {
	return Param{Key: key, Value: value}
}

// Params is an insertion-ordered parameter set. Setting a key again
// replaces its value and keeps its original position.
// The zero value is not usable; use NewParams. A nil *Params is empty.
type Params struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewParams builds a set from ps in order.
func NewParams(ps ...Param) *Params {
	p := &Params{m: orderedmap.New[string, any]()}
	for _, kv := range ps {
		p.Set(kv.Key, kv.Value)
	}
	return p
}

// Set adds or replaces key.
func (p *Params) Set(key string, value any) *Params {
	p.m.Set(key, value)
	return p
}

// Get returns the value for key.
func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// Len returns the number of distinct keys.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return p.m.Len()
}

// Parameters renders the set for the report in insertion order.
func (p *Params) Parameters() []report.Parameter {
	out := make([]report.Parameter, 0, p.Len())
	if p == nil {
		return out
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, report.Parameter{Name: pair.Key, Value: stringify(pair.Value)})
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return fmt.Sprint(x)
	}
}
