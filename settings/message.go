package settings

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MessageTypeUpdate tags a settings update message.
const MessageTypeUpdate = "SETTINGS_UPDATE"

// DecodeMessage decodes an update message of the form
//
//	{"type": "SETTINGS_UPDATE", "settings": {"speed": 0.5}}
//
// JSON and YAML are both accepted. ok is false for messages of another type
// or without a settings object. Unrecognized keys are ignored and a repeated
// key takes its last value. A value of the wrong type drops only that field,
// reported in the returned error alongside the rest of the patch.
func DecodeMessage(data []byte) (p Patch, ok bool, err error) {
	top, err := parseMapping(data)
	if err != nil {
		return Patch{}, false, fmt.Errorf("parsing message: %w", err)
	}
	if scalarValue(top["type"]) != MessageTypeUpdate {
		return Patch{}, false, nil
	}
	node := top["settings"]
	if node == nil || node.ShortTag() == "!!null" {
		return Patch{}, false, nil
	}
	fields, err := mappingFields(node)
	if err != nil {
		return Patch{}, false, fmt.Errorf("parsing message settings: %w", err)
	}
	p, err = decodeFields(fields)
	return p, true, err
}

// MessageType returns the type tag of a message, or "" when data is not a
// mapping or carries no type.
func MessageType(data []byte) string {
	top, err := parseMapping(data)
	if err != nil {
		return ""
	}
	return scalarValue(top["type"])
}

// DecodePatch decodes a bare settings object such as {"speed": 0.5}.
func DecodePatch(data []byte) (Patch, error) {
	fields, err := parseMapping(data)
	if err != nil {
		return Patch{}, fmt.Errorf("parsing patch: %w", err)
	}
	return decodeFields(fields)
}

// parseMapping parses a document whose root is a mapping. It works on the
// node tree so repeated keys resolve to the last occurrence, as JSON objects
// do, instead of failing the decode. An empty document yields no fields.
func parseMapping(data []byte) (map[string]*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return map[string]*yaml.Node{}, nil
	}
	return mappingFields(doc.Content[0])
}

func mappingFields(node *yaml.Node) (map[string]*yaml.Node, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected an object", node.Line)
	}
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}
	return fields, nil
}

func scalarValue(node *yaml.Node) string {
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

func decodeFields(fields map[string]*yaml.Node) (Patch, error) {
	var p Patch
	var firstErr error
	for _, name := range Fields {
		node, ok := fields[name]
		if !ok {
			continue
		}
		if err := p.set(name, node); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("field %s: %w", name, err)
		}
	}
	return p, firstErr
}

// set decodes one known field from node into p.
func (p *Patch) set(name string, node *yaml.Node) error {
	switch name {
	case FieldPrimaryColor:
		return decodeString(node, &p.PrimaryColor)
	case FieldSecondaryColor:
		return decodeString(node, &p.SecondaryColor)
	case FieldIntensity:
		return decodeFloat(node, &p.Intensity)
	case FieldSpeed:
		return decodeFloat(node, &p.Speed)
	case FieldScale:
		return decodeFloat(node, &p.Scale)
	case FieldTurbulence:
		return decodeFloat(node, &p.Turbulence)
	case FieldHeight:
		return decodeFloat(node, &p.Height)
	case FieldOpacity:
		return decodeFloat(node, &p.Opacity)
	}
	return nil
}

func decodeString(node *yaml.Node, dst **string) error {
	if node.Kind != yaml.ScalarNode {
		// Non-scalar colors fall back to white when converted.
		s := ""
		*dst = &s
		return nil
	}
	s := node.Value
	*dst = &s
	return nil
}

func decodeFloat(node *yaml.Node, dst **float64) error {
	var v float64
	if err := node.Decode(&v); err != nil {
		return err
	}
	*dst = &v
	return nil
}
