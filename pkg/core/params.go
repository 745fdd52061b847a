package core

// Params holds request parameters before they are canonicalized.
type Params map[string]any

// Clone returns a shallow copy so signing never mutates caller-owned maps.
func (p Params) Clone() Params {
	out := make(Params, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Set assigns value to key and returns p for chaining.
func (p Params) Set(key string, value any) Params {
	p[key] = value
	return p
}

// SetIf assigns value only when it is a non-empty string or a non-nil value.
func (p Params) SetIf(key string, value any) Params {
	switch v := value.(type) {
	case nil:
		return p
	case string:
		if v == "" {
			return p
		}
	}
	p[key] = value
	return p
}
