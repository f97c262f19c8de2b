package findings

import "encoding/json"

// Optional distinguishes an absent JSON key from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON only runs when the key is present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}
