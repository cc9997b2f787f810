// Package schemadsl compiles the opactx schema DSL into a JSON Schema
// (Draft 2020-12) document.
//
// The DSL is a strict YAML description of the canonical context tree:
//
//	dsl: opactx.schema/v1
//	id: context
//	title: Policy Context
//	description: Canonical context contract
//	root: context
//	strict: true
//	definitions:
//	  Team:
//	    type: object
//	    fields:
//	      id: {type: string, required: true}
//	schema:
//	  type: object
//	  fields:
//	    env: {type: string, required: true, enum: [dev, prod]}
//	    teams:
//	      type: array
//	      items: {$ref: "#/definitions/Team"}
//	      unique_by: id
//
// # Pipeline
//
// Loading a DSL file runs three passes, each failing fast with a
// SchemaDslError that names the offending location:
//
//  1. ValidateDocument checks the document against the embedded meta-grammar.
//  2. Compile checks top-level keys, references and reference cycles.
//  3. Compile then emits the JSON Schema tree node by node.
//
// # Ordering
//
// Documents decoded with DecodeYAML keep the authored key order, so the
// compiled "required" lists follow field declaration order. Plain Go maps
// have no order; their fields are compiled in sorted key order.
//
// # Vendor extensions
//
// x-opactx-id, x-opactx-root, x-opactx-tags and x-opactx-uniqueBy are
// informational only. In particular unique_by is not enforced by validation.
package schemadsl
