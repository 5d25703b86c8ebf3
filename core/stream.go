package core

import (
	"fmt"

	"github.com/figharvest/figharvest/internal/filters"
)

// Decode applies the stream's /Filter chain in order. Image codecs such as
// DCTDecode are left encoded; JBIG2 and encrypted streams are errors.
func (s *Stream) Decode() ([]byte, error) {
	names, params, err := s.filterChain()
	if err != nil {
		return nil, err
	}
	data := s.Data
	for i, name := range names {
		if data, err = filters.Decode(name, data, params[i]); err != nil {
			return nil, fmt.Errorf("filter %d (%s): %w", i, name, err)
		}
	}
	return data, nil
}

// filterChain pairs each filter name with its parameters. A single
// /DecodeParms dictionary applies to a single filter.
func (s *Stream) filterChain() ([]string, []filters.Params, error) {
	var names []string
	switch f := s.Dict.Get("Filter").(type) {
	case nil, Null:
		return nil, nil, nil
	case Name:
		names = []string{string(f)}
	case Array:
		for i, elem := range f {
			name, ok := elem.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("filter %d is %T, not a name", i, elem)
			}
			names = append(names, string(name))
		}
	default:
		return nil, nil, fmt.Errorf("invalid /Filter type %T", f)
	}

	if len(names) == 0 {
		return nil, nil, nil
	}
	params := make([]filters.Params, len(names))
	switch p := s.Dict.Get("DecodeParms").(type) {
	case Dict:
		params[0] = toParams(p)
	case Array:
		for i, iN := 0, min(len(p), len(names)); i < iN; i++ {
			if d, ok := p[i].(Dict); ok {
				params[i] = toParams(d)
			}
		}
	}
	return names, params, nil
}

// toParams converts the scalar entries of a parameter dictionary
func toParams(dict Dict) filters.Params {
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch v := v.(type) {
		case Int:
			params[k] = int(v)
		case Real:
			params[k] = float64(v)
		case Bool:
			params[k] = bool(v)
		case Name:
			params[k] = string(v)
		case String:
			params[k] = string(v)
		}
	}
	return params
}
