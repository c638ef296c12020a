package telemetry

import (
	"strings"
)

const (
	// NameTokenDelimiter joins the name tokens of one demuxed permutation.
	NameTokenDelimiter = " "

	// DimensionSeparator splits a dimension token into key and value.
	// Any token containing it is a dimension, every other token is part
	// of the metric name.
	DimensionSeparator = '='

	// OptionalMarker at the end of a token (name or dimension) makes it
	// optional: the key demuxes into permutations both with and without
	// that token.
	OptionalMarker = '*'
)

// KeyVariant is one concrete (name, dimension set) permutation decoded
// from an encoded metric key.
type KeyVariant struct {
	Name       string
	Dimensions map[string]string
}

type keyToken struct {
	text     string
	optional bool
}

// DemuxKey decodes an encoded metric key into every permutation it denotes.
//
// The key is whitespace delimited, e.g.
//
//	"TheCounter TestDim=Yellow TestToken* machine=number1*"
//
// Name token order is preserved in each permutation. Optional name tokens
// fan out into all subsets except the one that would leave the name blank,
// optional dimensions fan out into all subsets unconditionally, and the
// result is the cartesian product of the two. With n optional name tokens
// (plus at least one required) and m optional dimensions that is 2^n * 2^m
// permutations. Subsets are enumerated in ascending bitmask order, so the
// output order is stable for a given key.
func DemuxKey(encodedKey string) []KeyVariant {
	var names, dims []keyToken
	for _, text := range strings.Fields(encodedKey) {
		t := keyToken{text: text}
		if text[len(text)-1] == OptionalMarker {
			t.optional = true
			t.text = text[:len(text)-1]
		}

		if strings.IndexByte(t.text, DimensionSeparator) >= 0 {
			dims = append(dims, t)
		} else if t.text != "" {
			names = append(names, t)
		}
	}

	nameVariants := demuxNames(names)
	dimVariants := demuxDimensions(dims)

	variants := make([]KeyVariant, 0, len(nameVariants)*len(dimVariants))
	for _, name := range nameVariants {
		for _, dimensions := range dimVariants {
			variants = append(variants, KeyVariant{Name: name, Dimensions: dimensions})
		}
	}
	return variants
}

// demuxNames joins each kept subset of the optional name tokens with the
// required ones, preserving original token order. A blank name is never
// emitted: when every name token is optional the all-excluded subset is
// dropped, leaving 2^n-1 permutations.
func demuxNames(names []keyToken) []string {
	optional := 0
	for _, t := range names {
		if t.optional {
			optional++
		}
	}

	variants := make([]string, 0, 1<<uint(optional))
	for mask := 0; mask < 1<<uint(optional); mask++ {
		var name strings.Builder
		bit := 0
		for _, t := range names {
			if t.optional {
				excluded := mask&(1<<uint(bit)) == 0
				bit++
				if excluded {
					continue
				}
			}

			if name.Len() > 0 {
				name.WriteString(NameTokenDelimiter)
			}
			name.WriteString(t.text)
		}

		if name.Len() == 0 {
			continue
		}
		variants = append(variants, name.String())
	}
	return variants
}

// demuxDimensions unions each subset of the optional dimensions with the
// required ones. Unlike names, the empty subset is always kept.
func demuxDimensions(dims []keyToken) []map[string]string {
	required := make(map[string]string)
	var optional []keyToken
	for _, t := range dims {
		if t.optional {
			optional = append(optional, t)
		} else {
			k, v := splitDimension(t.text)
			required[k] = v
		}
	}

	variants := make([]map[string]string, 0, 1<<uint(len(optional)))
	for mask := 0; mask < 1<<uint(len(optional)); mask++ {
		m := make(map[string]string, len(required)+len(optional))
		for k, v := range required {
			m[k] = v
		}
		for i, t := range optional {
			if mask&(1<<uint(i)) != 0 {
				k, v := splitDimension(t.text)
				m[k] = v
			}
		}
		variants = append(variants, m)
	}
	return variants
}

func splitDimension(text string) (key, value string) {
	i := strings.IndexByte(text, DimensionSeparator)
	return text[:i], text[i+1:]
}
