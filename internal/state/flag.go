package state

import (
	"encoding/json"
	"fmt"
)

// Flag is a boolean that also accepts the wire's 0/1 number encoding.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = Flag(v)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = n != 0
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = s != "" && s != "0" && s != "false"
		return nil
	}
	return fmt.Errorf("flag: cannot decode %s", string(b))
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}
