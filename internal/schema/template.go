package schema

// BuildTemplate derives a type-shaped, value-stripped template from a
// canonical default instance.
//
// Objects keep their key set with every value templated recursively. An
// array whose first element is an object collapses to a one-element array
// holding that object's template; any other array collapses to an empty
// array. Scalars map to their type's zero value, and anything unrecognized
// maps to Null.
//
// The function is pure, total, and deterministic: no input produces an
// error, and shape(BuildTemplate(d)) == shape(d) at every level except
// that list lengths collapse to at most one.
func BuildTemplate(def Value) Value {
	switch v := def.(type) {
	case Object:
		out := make(Object, len(v))
		for k, elem := range v {
			out[k] = BuildTemplate(elem)
		}
		return out
	case Array:
		if len(v) > 0 {
			if _, ok := v[0].(Object); ok {
				// Template for a list of objects is one object template.
				return Array{BuildTemplate(v[0])}
			}
		}
		return Array{}
	case String:
		return String("")
	case Bool:
		return Bool(false)
	case Int:
		return Int(0)
	case Float:
		return Float(0)
	default:
		return Null{}
	}
}
