package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled holds one jsonschema.Schema per *Schema. Keying by pointer lets
// two schemas share a name without sharing a compiled definition.
var compiled sync.Map // map[*Schema]*jsonschema.Schema

// finish turns raw backend output into a Response. Truncated structured
// output is rejected before validation since it is almost never valid JSON.
func finish(ctx context.Context, backend string, req Request, raw json.RawMessage, usage Usage, model, stop string) (*Response, error) {
	if req.Schema != nil {
		if stop == StopMaxTokens {
			return nil, &Error{
				Kind:    KindTruncated,
				Backend: backend,
				Purpose: PurposeFrom(ctx),
				Schema:  req.Schema.Name,
				Content: raw,
			}
		}
		if err := checkOutput(req.Schema, raw); err != nil {
			err.Backend = backend
			err.Purpose = PurposeFrom(ctx)
			return nil, err
		}
	}
	return &Response{Content: raw, Usage: usage, Model: model, StopReason: stop}, nil
}

// checkOutput validates raw against the schema definition and then the
// schema's Check. A nil schema accepts anything.
func checkOutput(s *Schema, raw json.RawMessage) *Error {
	if s == nil {
		return nil
	}
	reject := func(err error) *Error {
		return &Error{Kind: KindInvalidOutput, Schema: s.Name, Content: raw, Err: err}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return reject(fmt.Errorf("not JSON: %w", err))
	}
	js, err := compile(s)
	if err != nil {
		return reject(err)
	}
	if err := js.Validate(doc); err != nil {
		return reject(err)
	}
	if s.Check != nil {
		if err := s.Check(raw); err != nil {
			return reject(err)
		}
	}
	return nil
}

func compile(s *Schema) (*jsonschema.Schema, error) {
	if js, ok := compiled.Load(s); ok {
		return js.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not Go literals such as []string.
	b, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", s.Name, err)
	}
	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", s.Name, err)
	}

	c := jsonschema.NewCompiler()
	url := "mem://screenwise/" + s.Name + ".json"
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("load schema %q: %w", s.Name, err)
	}
	js, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", s.Name, err)
	}
	compiled.Store(s, js)
	return js, nil
}
