package openapi

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// appendExtensionsJSON splices specification extensions into an already
// marshaled JSON object, after the fixed fields, in sorted key order.
func appendExtensionsJSON(obj []byte, extensions map[string]any) ([]byte, error) {
	if len(extensions) == 0 {
		return obj, nil
	}

	keys := sortedExtensionKeys(extensions)

	var buf bytes.Buffer
	// Drop the closing brace so the extensions can be appended.
	buf.Write(bytes.TrimSuffix(obj, []byte("}")))
	for _, k := range keys {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(extensions[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// appendExtensionsYAML appends specification extensions to an encoded YAML
// mapping node in sorted key order.
func appendExtensionsYAML(node *yaml.Node, extensions map[string]any) (*yaml.Node, error) {
	if len(extensions) == 0 {
		return node, nil
	}

	for _, k := range sortedExtensionKeys(extensions) {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(extensions[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// sortedExtensionKeys returns the "x-" prefixed keys in sorted order. Keys
// without the prefix are skipped so that fixed fields cannot be overridden
// through the extension map.
func sortedExtensionKeys(extensions map[string]any) []string {
	keys := make([]string, 0, len(extensions))
	for k := range extensions {
		if strings.HasPrefix(k, "x-") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the document and merges its specification extensions
// after the fixed fields.
func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	data, err := json.Marshal(alias(d))
	if err != nil {
		return nil, err
	}
	return appendExtensionsJSON(data, d.Extensions)
}

// MarshalYAML encodes the document as a YAML mapping with specification
// extensions after the fixed fields.
func (d Document) MarshalYAML() (any, error) {
	type alias Document
	node := &yaml.Node{}
	if err := node.Encode(alias(d)); err != nil {
		return nil, err
	}
	return appendExtensionsYAML(node, d.Extensions)
}

// MarshalJSON encodes the info object and merges its specification
// extensions after the fixed fields.
func (i Info) MarshalJSON() ([]byte, error) {
	type alias Info
	data, err := json.Marshal(alias(i))
	if err != nil {
		return nil, err
	}
	return appendExtensionsJSON(data, i.Extensions)
}

// MarshalYAML encodes the info object as a YAML mapping with specification
// extensions after the fixed fields.
func (i Info) MarshalYAML() (any, error) {
	type alias Info
	node := &yaml.Node{}
	if err := node.Encode(alias(i)); err != nil {
		return nil, err
	}
	return appendExtensionsYAML(node, i.Extensions)
}
