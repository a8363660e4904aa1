// Package jsonx centralises JSON encode/decode for the rest of the
// module behind json-iterator/go, with a jsonrepair fallback for the
// malformed mid-stream fragments the PEG parser and mapper hand it.
package jsonx

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal encodes v using the fast-path json-iterator codec.
func Marshal(v interface{}) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalToString encodes v to a string.
func MarshalToString(v interface{}) (string, error) {
	return api.MarshalToString(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v interface{}) error {
	return api.Unmarshal(data, v)
}

// ParseString attempts to decode jsonStr into v, first as-is, then with
// a closing brace appended (the common mid-stream truncation), then
// through jsonrepair as a last resort. Returns the original error if
// every attempt fails.
func ParseString(jsonStr string, v interface{}) error {
	err := api.UnmarshalFromString(jsonStr, v)
	if err == nil {
		return nil
	}
	originalErr := err

	if err := api.UnmarshalFromString(jsonStr+"}", v); err == nil {
		return nil
	}

	repaired, rerr := jsonrepair.JSONRepair(jsonStr)
	if rerr != nil {
		return originalErr
	}
	if err := api.UnmarshalFromString(repaired, v); err == nil {
		return nil
	}
	return originalErr
}

// ParseToMap decodes jsonStr into a generic map, using the same
// as-is/closed/repaired fallback chain as ParseString.
func ParseToMap(jsonStr string) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := ParseString(jsonStr, &m); err != nil {
		return nil, err
	}
	return m, nil
}
