package models

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SerializableOrderedMap is a JSON object that keeps the key order it was decoded or built with.
type SerializableOrderedMap struct {
	*orderedmap.OrderedMap[string, any]
}

func (s SerializableOrderedMap) MarshalJSON() ([]byte, error) {
	if s.OrderedMap == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.OrderedMap)
}

func (s *SerializableOrderedMap) UnmarshalJSON(data []byte) error {
	s.OrderedMap = orderedmap.New[string, any]()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, s.OrderedMap)
}

// Value returns the value stored under key or nil.
func (s SerializableOrderedMap) Value(key string) any {
	if s.OrderedMap == nil {
		return nil
	}
	val, _ := s.OrderedMap.Get(key)
	return val
}

func (s SerializableOrderedMap) Len() int {
	if s.OrderedMap == nil {
		return 0
	}
	return s.OrderedMap.Len()
}

func NewSerializableOrderedMap(pairs ...orderedmap.Pair[string, any]) SerializableOrderedMap {
	data := orderedmap.New[string, any](orderedmap.WithInitialData(pairs...))
	return SerializableOrderedMap{data}
}
