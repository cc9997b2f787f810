// Package config loads the opactx.yaml project file and the intent files
// (standards and exceptions) that live in the project's context directory.
//
// Loading follows the same sequence for every file: read, expand ${ENV}
// references, decode strictly (unknown keys are rejected), apply defaults and
// validate. Failures are reported as *Error values whose message is meant to
// be shown to the operator as is.
package config
