package studio

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/sourceplane/tmplstudio/internal/model"
)

// CompareTemplates reports whether two documents DIFFER.
// Comparison is structural and independent of map key order.
func CompareTemplates(a, b model.Document) bool {
	return !canonicalEqual(a, b)
}

// CompareMetadata reports whether two metadata values differ
func CompareMetadata(a, b model.Metadata) bool {
	return !canonicalEqual(a, b)
}

// canonicalEqual compares the stable serializations of a and b.
// Values are first normalized through a generic decode so that numeric
// types (int from YAML, float64 from JSON) serialize identically.
func canonicalEqual(a, b interface{}) bool {
	ca, errA := canonical(a)
	cb, errB := canonical(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ca, cb)
}

func canonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	// encoding/json sorts map keys
	return json.Marshal(generic)
}
