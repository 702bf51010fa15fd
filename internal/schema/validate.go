package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator compiles a JSON-Schema map once and validates documents against it.
type Validator struct {
	name   string
	doc    map[string]any
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

// New wraps schemaMap; compilation is deferred to the first Validate call.
func New(name string, schemaMap map[string]any) *Validator {
	return &Validator{name: name, doc: schemaMap}
}

func (v *Validator) compile() {
	b, err := json.Marshal(v.doc)
	if err != nil {
		v.err = fmt.Errorf("marshal schema: %w", err)
		return
	}
	url := v.name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		v.err = fmt.Errorf("add schema: %w", err)
		return
	}
	v.schema, v.err = compiler.Compile(url)
	if v.err != nil {
		v.err = fmt.Errorf("compile schema: %w", v.err)
	}
}

// Validate checks raw JSON bytes against the schema.
func (v *Validator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return v.ValidateValue(doc)
}

// ValidateValue checks an already decoded JSON value.
func (v *Validator) ValidateValue(doc any) error {
	v.once.Do(v.compile)
	if v.err != nil {
		return v.err
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
