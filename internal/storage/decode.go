package storage

import (
	"encoding/json"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeList converts loosely typed JSON array elements into T one at a
// time, dropping elements that don't decode instead of failing the batch.
func DecodeList[T any](items []any) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		var v T
		if !decodeValue(item, &v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DecodeObject converts a loosely typed JSON object into T.
func DecodeObject[T any](item any) (T, bool) {
	var v T
	if _, ok := item.(map[string]any); !ok {
		return v, false
	}
	return v, decodeValue(item, &v)
}

// AsList coerces a decoded JSON value into an array. Anything that isn't
// already one becomes an empty array.
func AsList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{}
}

// decodeValue decodes item into v. Values written by older app versions
// (numeric ids, numbers stored as strings) fail the strict pass and are
// retried with weak typing.
func decodeValue(item any, v any) bool {
	data, err := json.Marshal(item)
	if err != nil {
		return false
	}
	if json.Unmarshal(data, v) == nil {
		return true
	}
	return decodeWeak(item, v) == nil
}

func decodeWeak(item any, v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           v,
	})
	if err != nil {
		return err
	}
	return dec.Decode(item)
}
