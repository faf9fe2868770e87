package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes either a JSON string or a JSON number into a string.
// Event ids arrive in both encodings depending on the endpoint.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*s = ""
			return nil
		}
		*s = FlexString(str)
		return nil
	}
	// Bare number token: keep its textual form.
	*s = FlexString(data)
	return nil
}

// FlexFloat decodes a JSON number, a numeric string, or null into a float64.
// Anything unparseable becomes zero rather than failing the whole document.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// StringList decodes outcome names from a native JSON array, an array of
// objects carrying a "name" field, or a JSON-encoded string containing
// either. Decode failure yields an empty list.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = decodeStringList(data)
	return nil
}

func decodeStringList(data []byte) []string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil
		}
		return decodeStringList([]byte(inner))
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			out = append(out, obj.Name)
			continue
		}
		out = append(out, string(item))
	}
	return out
}

// FloatList decodes outcome prices from a native JSON array of numbers or
// numeric strings, or a JSON-encoded string containing one. Decode failure
// yields an empty list.
type FloatList []float64

func (l *FloatList) UnmarshalJSON(data []byte) error {
	*l = decodeFloatList(data)
	return nil
}

func decodeFloatList(data []byte) []float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil
		}
		return decodeFloatList([]byte(inner))
	}
	var raw []FlexFloat
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}
