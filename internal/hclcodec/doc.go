// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package hclcodec is the deserializer the resource loader uses to turn a
// payload file into a Go value.
//
// Payload files are HCL. A payload type describes its fields with `hcl`
// struct tags and the codec decodes the file body straight into it with
// gohcl. Two things are layered on top of plain decoding:
//
//   - Schema header: a type may declare a schema identifier. The file must
//     then start with `schema = "<id>"`; the attribute is consumed by the
//     codec and hidden from the payload struct.
//
//   - Expression functions: expressions are evaluated against an
//     EvalContext that exposes a small cty standard library plus functions
//     supplied by the loader. The most important one is `resource("path")`,
//     through which a payload declares that it depends on another resource.
//
// Why HCL?
//
// The loader needs a format that can carry references between files as
// first-class expressions. With HCL, a dependency is just a function call in
// an attribute, so the loader learns about nested resources while decoding
// instead of running a second discovery pass over the data.
package hclcodec
