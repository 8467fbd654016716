// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the expression functions available inside payload files.
package hclcodec

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// NewEvalContext returns an evaluation context with the standard functions
// plus extra. Entries in extra override standard functions of the same name.
func NewEvalContext(extra map[string]function.Function) *hcl.EvalContext {
	funcs := map[string]function.Function{
		"upper":     stdlib.UpperFunc,
		"lower":     stdlib.LowerFunc,
		"format":    stdlib.FormatFunc,
		"join":      stdlib.JoinFunc,
		"concat":    stdlib.ConcatFunc,
		"coalesce":  stdlib.CoalesceFunc,
		"length":    stdlib.LengthFunc,
		"trimspace": stdlib.TrimSpaceFunc,
	}
	for name, fn := range extra {
		funcs[name] = fn
	}
	return &hcl.EvalContext{Functions: funcs}
}

// ResourceFunc builds `resource(path)`. resolve is called with the literal
// path; the string it returns (normally the normalized path) becomes the
// expression's value. An error from resolve fails the evaluation.
func ResourceFunc(resolve func(path string) (string, error)) function.Function {
	return function.New(&function.Spec{
		Description: "Declares a dependency on another resource and returns its normalized path.",
		Params: []function.Parameter{
			{Name: "path", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			resolved, err := resolve(args[0].AsString())
			if err != nil {
				return cty.NilVal, err
			}
			return cty.StringVal(resolved), nil
		},
	})
}

// EnvFunc builds `env(name[, default])` on top of lookup. A missing variable
// without a default evaluates to null.
func EnvFunc(lookup func(name string) (string, bool)) function.Function {
	return function.New(&function.Spec{
		Description: "Reads an environment variable.",
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		VarParam: &function.Parameter{Name: "default", Type: cty.String},
		Type:     function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if v, ok := lookup(args[0].AsString()); ok {
				return cty.StringVal(v), nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return cty.NullVal(cty.String), nil
		},
	})
}
