package damper

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Serializer defines the stable-encoding contract used by the default
// change-detection strategy. Two structurally identical snapshots must
// produce identical bytes. Implement this interface to use alternative
// encodings for detection.
type Serializer interface {
	// Marshal encodes a snapshot into a stable byte representation.
	Marshal(snap Snapshot) ([]byte, error)

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONSerializer implements Serializer using encoding/json, which emits
// map keys in sorted order and therefore yields a stable encoding.
type JSONSerializer struct{}

// Marshal encodes the snapshot as JSON.
func (JSONSerializer) Marshal(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// ContentType returns the JSON MIME type.
func (JSONSerializer) ContentType() string {
	return "application/json"
}

// Ensure JSONSerializer implements Serializer.
var _ Serializer = JSONSerializer{}

// YAMLSerializer implements Serializer using gopkg.in/yaml.v3, which also
// emits map keys in sorted order.
type YAMLSerializer struct{}

// Marshal encodes the snapshot as YAML.
func (YAMLSerializer) Marshal(snap Snapshot) ([]byte, error) {
	return yaml.Marshal(snap)
}

// ContentType returns the YAML MIME type.
func (YAMLSerializer) ContentType() string {
	return "application/x-yaml"
}

// Ensure YAMLSerializer implements Serializer.
var _ Serializer = YAMLSerializer{}
