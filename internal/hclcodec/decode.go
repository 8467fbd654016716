// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file holds the decoding entry points. Every entry point parses the raw
// bytes, strips and validates the optional schema header, and then either
// decodes into a tagged struct or evaluates the remaining attributes.
package hclcodec

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// SchemaAttribute is the name of the header attribute carrying the schema id.
const SchemaAttribute = "schema"

// Source is one payload file.
type Source struct {
	Filename string
	Data     []byte
}

// Parse parses src as native HCL syntax.
func Parse(src Source) (*hcl.File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src.Data, src.Filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", src.Filename, diags)
	}
	return file, nil
}

// Decode parses src, checks the schema header when schema is non-empty, and
// decodes the remaining body into target, which must be a pointer to a struct
// with `hcl` tags.
func Decode(src Source, schema string, target any, evalCtx *hcl.EvalContext) error {
	body, err := open(src, schema)
	if err != nil {
		return err
	}
	if diags := gohcl.DecodeBody(body, evalCtx, target); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", src.Filename, diags)
	}
	return nil
}

// Attributes parses src, checks the schema header when schema is non-empty,
// and evaluates every remaining top-level attribute. Blocks are not allowed.
func Attributes(src Source, schema string, evalCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	body, err := open(src, schema)
	if err != nil {
		return nil, err
	}

	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read attributes of %s: %w", src.Filename, diags)
	}

	values := make(map[string]cty.Value, len(attrs))
	var allDiags hcl.Diagnostics
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(evalCtx)
		allDiags = append(allDiags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		values[name] = val
	}
	if allDiags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate attributes of %s: %w", src.Filename, allDiags)
	}
	return values, nil
}

// open parses src and returns the body with the schema header consumed.
func open(src Source, schema string) (hcl.Body, error) {
	file, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if schema == "" {
		return file.Body, nil
	}

	content, remain, diags := file.Body.PartialContent(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{{Name: SchemaAttribute, Required: true}},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("missing schema header in %s: %w", src.Filename, diags)
	}

	var got string
	if diags := gohcl.DecodeExpression(content.Attributes[SchemaAttribute].Expr, nil, &got); diags.HasErrors() {
		return nil, fmt.Errorf("invalid schema header in %s: %w", src.Filename, diags)
	}
	if got != schema {
		return nil, fmt.Errorf("schema mismatch in %s: expected %q, got %q", src.Filename, schema, got)
	}
	return remain, nil
}
