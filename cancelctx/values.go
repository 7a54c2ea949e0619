package cancelctx

import (
	"encoding/json"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Values returns a snapshot copy of the value store. Mutating the
// returned map never perturbs the context.
func (c *Context) Values() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CloneValues(c.values)
}

// Value looks up a single key in the value store. Nested maps and slices
// come back as copies, like Values.
func (c *Context) Value(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// WithValues derives a new context whose value store is the inherited
// snapshot merged with the supplied entries, supplied keys overriding
// inherited keys of the same name. Neither the receiver's store nor the
// supplied map is mutated.
func (c *Context) WithValues(values map[string]interface{}) (*Context, error) {
	if values == nil {
		return nil, NewInvalidValuesError()
	}
	child, err := Derive(c)
	if err != nil {
		return nil, err
	}

	// child.values is already a private clone from Derive
	child.mu.Lock()
	for k, v := range values {
		child.values[k] = cloneValue(v)
	}
	child.mu.Unlock()
	return child, nil
}

// ValueAtPath resolves a nested value using gjson path syntax against the
// JSON rendition of the value store. Entries must be JSON-marshalable.
func (c *Context) ValueAtPath(path string) (gjson.Result, error) {
	if path == "" {
		return gjson.Result{}, NewInvalidPathError()
	}
	data, err := MapToByteArray(c.Values())
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(data, path), nil
}

// WithValueAtPath derives a new context with a value installed at a
// nested path. The inherited store is rendered to JSON, updated with
// sjson and reparsed, so the resulting entries carry JSON typing.
func (c *Context) WithValueAtPath(path string, value interface{}) (*Context, error) {
	if path == "" {
		return nil, NewInvalidPathError()
	}
	child, err := Derive(c)
	if err != nil {
		return nil, err
	}

	child.mu.Lock()
	raw, err := MapToByteArray(child.values)
	if err == nil {
		var updated string
		updated, err = sjson.Set(string(raw), path, value)
		if err == nil {
			var merged map[string]interface{}
			err = json.Unmarshal([]byte(updated), &merged)
			if err == nil {
				child.values = merged
			}
		}
	}
	child.mu.Unlock()

	if err != nil {
		// derivation either fully succeeds or not at all
		child.Release()
		return nil, err
	}
	return child, nil
}

// Fingerprint returns a stable hash of the value store, usable as a
// cache key for work derived from the context's data.
func (c *Context) Fingerprint() (uint64, error) {
	return hashstructure.Hash(c.Values(), hashstructure.FormatV2, nil)
}
