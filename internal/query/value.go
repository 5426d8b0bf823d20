package query

// ValueKind discriminates the closed set of filter value shapes. The shape
// is decided once when the request is parsed; everything downstream switches
// on the variant instead of re-inspecting raw types.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueList
)

// Value is the tagged variant for one raw filter value.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []string
}

// toValue normalizes a raw parameter value into the variant. Shapes outside
// the closed set (nested objects, nulls, mixed arrays) are rejected.
func toValue(raw any) (Value, bool) {
	switch v := raw.(type) {
	case string:
		return Value{Kind: ValueString, Str: v}, true
	case []string:
		return Value{Kind: ValueList, List: v}, true
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return Value{}, false
			}
			list = append(list, s)
		}
		return Value{Kind: ValueList, List: list}, true
	case float64:
		return Value{Kind: ValueNumber, Num: v}, true
	case int:
		return Value{Kind: ValueNumber, Num: float64(v)}, true
	case int64:
		return Value{Kind: ValueNumber, Num: float64(v)}, true
	case bool:
		return Value{Kind: ValueBool, Bool: v}, true
	}
	return Value{}, false
}

// Scalar returns the native Go value carried by a non-list Value.
func (v Value) Scalar() any {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return v.Num
	case ValueBool:
		return v.Bool
	}
	return nil
}
