/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package esp

import "github.com/ForrestLi/auto-test-poc/harnesserr"

// BuildCtx is handed to a FieldSpec's Compute function. ChildLen is the
// byte length of everything this layer's payload sits on top of — the
// quantity self-sized header fields (MessageLength, DataAreaLength,
// DataLength) are recomputed from, never trusted from caller input.
type BuildCtx struct {
	ChildLen int
}

// ComputeFunc overrides a field's value at build time regardless of
// what the caller supplied in Values — this is how header length
// fields stay self-sized per spec.md §3 ("must never be trusted from
// a user-provided value during build").
type ComputeFunc func(ctx BuildCtx) any

// FieldSpec is one named field in a LayerSchema's declaration order.
type FieldSpec struct {
	Name    string
	Field   Field
	Compute ComputeFunc
}

// LayerSchema is a declarative packet layer: an ordered list of fields
// plus, optionally, the name of the field that discriminates which
// child layer schema follows (looked up via the binding table).
type LayerSchema struct {
	Name               string
	Fields             []FieldSpec
	DiscriminatorField string
	width              int
}

func NewLayerSchema(name string, discriminator string, specs ...FieldSpec) *LayerSchema {
	w := 0
	for _, s := range specs {
		w += s.Field.Width()
	}
	return &LayerSchema{Name: name, Fields: specs, DiscriminatorField: discriminator, width: w}
}

func (s *LayerSchema) Width() int { return s.width }

// binding is a registered (parent schema, discriminator value) -> child
// schema edge. Parsing looks up the first binding whose Value equals
// the parsed discriminator field; building is explicit (caller chains
// Layer.Child) and does not consult the table.
type binding struct {
	value string
	child *LayerSchema
}

var bindingTable = map[*LayerSchema][]binding{}

// Bind registers a child layer schema under parent, keyed by the
// literal value of parent's discriminator field. Binding tables must
// be preserved verbatim from the source protocol definition — see
// spec.md §6 and §9.
func Bind(parent *LayerSchema, value string, child *LayerSchema) {
	bindingTable[parent] = append(bindingTable[parent], binding{value: value, child: child})
}

func lookupBinding(parent *LayerSchema, value string) *LayerSchema {
	for _, b := range bindingTable[parent] {
		if b.value == value {
			return b.child
		}
	}
	return nil
}

// Layer is one decoded (or to-be-encoded) node in a packet chain.
type Layer struct {
	Schema   *LayerSchema
	Values   map[string]any
	Child    *Layer
	Trailing []byte // opaque remainder when no binding matched at parse time
}

func NewLayer(schema *LayerSchema) *Layer {
	return &Layer{Schema: schema, Values: make(map[string]any)}
}

// Get walks the chain looking for a layer whose schema is named name.
func (l *Layer) Get(name string) *Layer {
	for cur := l; cur != nil; cur = cur.Child {
		if cur.Schema.Name == name {
			return cur
		}
	}
	return nil
}

// Has reports whether a layer named name appears anywhere in the chain.
func (l *Layer) Has(name string) bool { return l.Get(name) != nil }

// Build serializes the layer chain starting at l, recomputing every
// self-sized header field from the actual bytes of the layers beneath
// it (bottom-up).
func Build(l *Layer) ([]byte, error) {
	var childBytes []byte
	if l.Child != nil {
		b, err := Build(l.Child)
		if err != nil {
			return nil, err
		}
		childBytes = b
	} else {
		childBytes = l.Trailing
	}

	ctx := BuildCtx{ChildLen: len(childBytes)}
	buf := make([]byte, 0, l.Schema.Width()+len(childBytes))
	for _, spec := range l.Schema.Fields {
		var v any
		if spec.Compute != nil {
			v = spec.Compute(ctx)
		} else {
			v = l.Values[spec.Name]
		}
		b, err := spec.Field.Encode(v)
		if err != nil {
			return nil, harnesserr.NewCodecError(l.Schema.Name+"."+spec.Name, err.Error())
		}
		buf = append(buf, b...)
	}
	return append(buf, childBytes...), nil
}

// Parse consumes schema's fields from data in order, then recurses
// into the bound child schema selected by the discriminator field's
// decoded value. Unmatched remainder is kept as opaque Trailing.
func Parse(schema *LayerSchema, data []byte) (*Layer, error) {
	if len(data) < schema.Width() {
		return nil, harnesserr.NewCodecError(schema.Name, "frame shorter than declared layer width")
	}
	layer := NewLayer(schema)
	pos := 0
	for _, spec := range schema.Fields {
		w := spec.Field.Width()
		v, err := spec.Field.Decode(data[pos : pos+w])
		if err != nil {
			return nil, err
		}
		layer.Values[spec.Name] = v
		pos += w
	}
	remainder := data[pos:]

	if schema.DiscriminatorField != "" {
		disc, err := discriminatorString(layer.Values[schema.DiscriminatorField])
		if err != nil {
			return nil, err
		}
		if child := lookupBinding(schema, disc); child != nil {
			childLayer, err := Parse(child, remainder)
			if err != nil {
				return nil, err
			}
			layer.Child = childLayer
			return layer, nil
		}
	}
	layer.Trailing = remainder
	return layer, nil
}

// ParseHeader decodes only schema's own fields from data, without
// attempting to resolve or recurse into a bound child — the rest of
// data (if any) is kept as Trailing untouched. This is what a stream
// reader uses to learn a self-sized length field (e.g. ESPCommon's
// MessageLength) before it has read enough bytes to satisfy the
// eventual child layer's width; Parse cannot be used for that since it
// always tries to resolve and consume the child.
func ParseHeader(schema *LayerSchema, data []byte) (*Layer, error) {
	if len(data) < schema.Width() {
		return nil, harnesserr.NewCodecError(schema.Name, "frame shorter than declared layer width")
	}
	layer := NewLayer(schema)
	pos := 0
	for _, spec := range schema.Fields {
		w := spec.Field.Width()
		v, err := spec.Field.Decode(data[pos : pos+w])
		if err != nil {
			return nil, err
		}
		layer.Values[spec.Name] = v
		pos += w
	}
	layer.Trailing = data[pos:]
	return layer, nil
}

func discriminatorString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	default:
		return "", harnesserr.NewCodecError("discriminator", "discriminator field is not string-valued")
	}
}
