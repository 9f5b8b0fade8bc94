package core

import "strconv"

// balanceKeys are probed, in order, when a raw value is a nested object.
// Upstream providers wrap balances in several shapes ({"current": ...},
// {"balances": {"available": ...}}, string amounts, nulls); the first key
// that yields a non-zero number wins.
var balanceKeys = [...]string{"current", "amount", "balance", "value", "available"}

// ToNumber coerces an arbitrary raw value into a float64. Numbers and
// numeric strings convert directly; nested objects are probed via
// balanceKeys and recursed into. Anything unrecognized degrades to 0;
// upstream records are untrusted and this must never panic.
func ToNumber(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	case map[string]any:
		return probeKeys(v)
	case interface{ Map() map[string]interface{} }:
		// BSON documents decode to an ordered form exposing Map().
		return probeKeys(v.Map())
	default:
		return 0
	}
}

func probeKeys(m map[string]any) float64 {
	for _, key := range balanceKeys {
		if nested, ok := m[key]; ok {
			if n := ToNumber(nested); n != 0 {
				return n
			}
		}
	}
	return 0
}
