package job

import "strconv"

// Params is the flat string-to-string parameter mapping attached to a
// template. Order is irrelevant; typed accessors parse on demand.
type Params map[string]string

// Clone returns an independent copy of the mapping.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Bool interprets a parameter as a flag: "false" and "0" are false, any
// other present value is true, absence yields def.
func (p Params) Bool(name string, def bool) bool {
	v, ok := p[name]
	if !ok {
		return def
	}
	return v != "false" && v != "0"
}

// Int parses a numeric parameter. Absence and parse failures are both
// ErrInvalidParams kinded so validation can fail fast.
func (p Params) Int(name string) (int, error) {
	v, ok := p[name]
	if !ok {
		return 0, Errorf(ErrInvalidParams, "", "parameter %q is required", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, Errorf(ErrInvalidParams, "", "parameter %q is not numeric: %q", name, v)
	}
	return n, nil
}

// IntDefault parses a numeric parameter, substituting def when absent.
// A present but malformed value still fails.
func (p Params) IntDefault(name string, def int) (int, error) {
	if _, ok := p[name]; !ok {
		return def, nil
	}
	return p.Int(name)
}

// Float parses a floating-point parameter with the same error contract as Int.
func (p Params) Float(name string) (float64, error) {
	v, ok := p[name]
	if !ok {
		return 0, Errorf(ErrInvalidParams, "", "parameter %q is required", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, Errorf(ErrInvalidParams, "", "parameter %q is not numeric: %q", name, v)
	}
	return f, nil
}
