package monte

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Condition is one named control parameter.
type Condition struct {
	Name  string
	Value float64
}

// Cond is shorthand for a Condition literal.
func Cond(name string, value float64) Condition {
	return Condition{Name: name, Value: value}
}

// Conditions is an ordered mapping from condition names to values. The zero
// value is empty and ready to use. Methods never modify the receiver; every
// transformation returns a new value.
type Conditions struct {
	names  []string
	values map[string]float64
}

// NewConditions builds Conditions in the order given. A repeated name keeps
// its first position and takes the last value.
func NewConditions(cs ...Condition) Conditions {
	c := Conditions{values: make(map[string]float64, len(cs))}
	for _, kv := range cs {
		if _, ok := c.values[kv.Name]; !ok {
			c.names = append(c.names, kv.Name)
		}
		c.values[kv.Name] = kv.Value
	}
	return c
}

func (c Conditions) Len() int { return len(c.names) }

// Names returns the condition names in order.
func (c Conditions) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c Conditions) Get(name string) (float64, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Value returns the named value, or 0 when absent.
func (c Conditions) Value(name string) float64 {
	return c.values[name]
}

// Pairs returns the conditions as an ordered slice.
func (c Conditions) Pairs() []Condition {
	out := make([]Condition, len(c.names))
	for i, n := range c.names {
		out[i] = Condition{Name: n, Value: c.values[n]}
	}
	return out
}

// With returns a copy with name set to value, appending name if new.
func (c Conditions) With(name string, value float64) Conditions {
	return NewConditions(append(c.Pairs(), Condition{Name: name, Value: value})...)
}

func (c Conditions) Clone() Conditions {
	return NewConditions(c.Pairs()...)
}

// SameNames reports whether both hold exactly the same set of names.
func (c Conditions) SameNames(other Conditions) bool {
	if len(c.names) != len(other.names) {
		return false
	}
	for _, n := range c.names {
		if _, ok := other.values[n]; !ok {
			return false
		}
	}
	return true
}

// Add returns c + other componentwise, in c's order. Both must hold the same
// set of names.
func (c Conditions) Add(other Conditions) (Conditions, error) {
	if !c.SameNames(other) {
		return Conditions{}, Configf("conditions", "names %v do not match %v", c.names, other.names)
	}
	out := make([]Condition, len(c.names))
	for i, n := range c.names {
		out[i] = Condition{Name: n, Value: c.values[n] + other.values[n]}
	}
	return NewConditions(out...), nil
}

// Scale returns f*c componentwise.
func (c Conditions) Scale(f float64) Conditions {
	out := c.Pairs()
	for i := range out {
		out[i].Value *= f
	}
	return NewConditions(out...)
}

// Equal reports whether both hold the same names with values within tol.
func (c Conditions) Equal(other Conditions, tol float64) bool {
	if !c.SameNames(other) {
		return false
	}
	for _, n := range c.names {
		if math.Abs(c.values[n]-other.values[n]) > tol {
			return false
		}
	}
	return true
}

func (c Conditions) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range c.names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %g", n, c.values[n])
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalYAML emits an ordered mapping.
func (c Conditions) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, n := range c.names {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: n},
			&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(c.values[n], 'g', -1, 64)},
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping, keeping document order.
func (c *Conditions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("conditions: expected mapping, got %s", node.ShortTag())
	}
	cs := make([]Condition, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v float64
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("conditions: %s: %w", node.Content[i].Value, err)
		}
		cs = append(cs, Condition{Name: node.Content[i].Value, Value: v})
	}
	*c = NewConditions(cs...)
	return nil
}

// MarshalJSON emits an object with keys in order.
func (c Conditions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range c.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.values[n])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping document order.
func (c *Conditions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("conditions: expected object")
	}
	var cs []Condition
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("conditions: expected key")
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("conditions: %s: %w", name, err)
		}
		cs = append(cs, Condition{Name: name, Value: v})
	}
	*c = NewConditions(cs...)
	return nil
}
