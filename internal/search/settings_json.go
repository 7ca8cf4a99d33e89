package search

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSON keys used to persist settings.
const (
	keySearchText       = "search_text"
	keyCaseSensitive    = "case_sensitive"
	keyAtWordBoundaries = "at_word_boundaries"
	keyRegexEnabled     = "regex_enabled"
	keyWrapAround       = "wrap_around"
)

// MarshalJSON encodes the current values.
func (s *Settings) MarshalJSON() ([]byte, error) {
	q := s.Query()
	doc := []byte(`{}`)

	var err error
	for _, kv := range []struct {
		key   string
		value any
	}{
		{keySearchText, q.Text},
		{keyCaseSensitive, q.CaseSensitive},
		{keyAtWordBoundaries, q.AtWordBoundaries},
		{keyRegexEnabled, q.Regex},
		{keyWrapAround, q.WrapAround},
	} {
		doc, err = sjson.SetBytes(doc, kv.key, kv.value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", kv.key, err)
		}
	}
	return doc, nil
}

// UnmarshalJSON applies the values present in data. Missing keys keep their
// current value and unknown keys are ignored. Subscribers are notified once.
func (s *Settings) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("decoding search settings: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("decoding search settings: expected object, got %s", root.Type)
	}

	q := s.Query()
	if v := root.Get(keySearchText); v.Exists() {
		q.Text = v.String()
	}
	if v := root.Get(keyCaseSensitive); v.Exists() {
		q.CaseSensitive = v.Bool()
	}
	if v := root.Get(keyAtWordBoundaries); v.Exists() {
		q.AtWordBoundaries = v.Bool()
	}
	if v := root.Get(keyRegexEnabled); v.Exists() {
		q.Regex = v.Bool()
	}
	if v := root.Get(keyWrapAround); v.Exists() {
		q.WrapAround = v.Bool()
	}
	s.Set(q)
	return nil
}
