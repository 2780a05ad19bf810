package bridge

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a host message is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// typeField names the event type of a host message.
const typeField = "type"

// Inspector turns a raw host message into a View that discriminators can
// query without decoding the whole message.
type Inspector interface {
	Inspect(raw []byte) (View, error)
}

// View gives read-only access to the fields of one host message. Getters
// report false for missing fields and for fields of another JSON type.
type View interface {
	// Type returns the message's "type" field, "" when absent.
	Type() string

	HasField(path string) bool
	GetString(path string) (string, bool)
	GetBool(path string) (bool, bool)

	// GetInt truncates numbers to an int, as for a click's "button".
	GetInt(path string) (int, bool)

	// GetBytes returns the raw JSON of the value at path.
	GetBytes(path string) ([]byte, bool)
}

// JSONInspector returns an Inspector backed by gjson. Paths use gjson syntax,
// so "detail.href" reaches into nested objects.
func JSONInspector() Inspector {
	return jsonInspector{}
}

type jsonInspector struct{}

func (jsonInspector) Inspect(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	msg := gjson.ParseBytes(raw)
	if !msg.IsObject() {
		return nil, ErrInvalidJSON
	}
	return &jsonView{msg: msg}, nil
}

// jsonView keeps the parsed message; field lookups scan its raw text.
type jsonView struct {
	msg gjson.Result
}

func (v *jsonView) field(path string, types ...gjson.Type) (gjson.Result, bool) {
	r := v.msg.Get(path)
	if !r.Exists() {
		return r, false
	}
	if len(types) == 0 {
		return r, true
	}
	for _, t := range types {
		if r.Type == t {
			return r, true
		}
	}
	return r, false
}

func (v *jsonView) Type() string {
	s, _ := v.GetString(typeField)
	return s
}

func (v *jsonView) HasField(path string) bool {
	_, ok := v.field(path)
	return ok
}

func (v *jsonView) GetString(path string) (string, bool) {
	r, ok := v.field(path, gjson.String)
	return r.Str, ok
}

func (v *jsonView) GetBool(path string) (bool, bool) {
	r, ok := v.field(path, gjson.True, gjson.False)
	return ok && r.Type == gjson.True, ok
}

func (v *jsonView) GetInt(path string) (int, bool) {
	r, ok := v.field(path, gjson.Number)
	if !ok {
		return 0, false
	}
	return int(r.Int()), true
}

func (v *jsonView) GetBytes(path string) ([]byte, bool) {
	r, ok := v.field(path)
	if !ok {
		return nil, false
	}
	return []byte(r.Raw), true
}
