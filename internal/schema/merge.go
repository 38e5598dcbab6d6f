package schema

// Merge reconciles an arbitrary vendor value against a template, producing
// a normalized instance with the template's shape. The policy, evaluated
// top-down:
//
//  1. Object vs object: the result has exactly the template's keys; each
//     value merges the template entry against the vendor entry, falling
//     back to the template entry when the vendor key is absent.
//  2. Array vs array where the template's first element is an object: every
//     vendor element is merged against that single object template. The
//     vendor array's length wins, including zero.
//  3. Array vs array otherwise: the vendor array verbatim.
//  4. Anything else (scalar or type mismatch): the vendor value unless it
//     is null, in which case the template value.
//
// Shape mismatches never raise an error; the function degrades to "vendor
// wins when present, template wins when absent" at every level. Vendor data
// that doesn't fit a list-of-objects template is normalized element by
// element, which is deliberately lossy.
func Merge(template, vendor Value) Value {
	switch t := template.(type) {
	case Object:
		if v, ok := vendor.(Object); ok {
			merged := make(Object, len(t))
			for key, tv := range t {
				vv, present := v[key]
				if !present {
					vv = tv
				}
				merged[key] = Merge(tv, vv)
			}
			return merged
		}
	case Array:
		if v, ok := vendor.(Array); ok {
			if len(t) > 0 {
				if objTemplate, isObj := t[0].(Object); isObj {
					merged := make(Array, len(v))
					for i, item := range v {
						merged[i] = Merge(objTemplate, item)
					}
					return merged
				}
			}
			return v
		}
	}

	if IsNull(vendor) {
		return template
	}
	return vendor
}

// Normalize is the full pipeline for one vendor payload: derive the
// template from the default instance, then merge the vendor value into it.
func Normalize(defaultInstance, vendor Value) Value {
	return Merge(BuildTemplate(defaultInstance), vendor)
}
