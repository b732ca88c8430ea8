package handler

import (
	"encoding/json"
	"strings"
)

// IdentifyRequest is the inbound identity claim. Both fields are optional at
// the schema level; the handler rejects requests carrying neither.
type IdentifyRequest struct {
	Email       *string      `json:"email"`
	PhoneNumber *FlexiString `json:"phoneNumber"`
}

// FlexiString accepts either a JSON string or a JSON number. Clients of the
// identify endpoint have historically sent phone numbers both ways.
type FlexiString string

func (f *FlexiString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexiString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexiString(n.String())
	return nil
}

func (f *FlexiString) stringPtr() *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}
