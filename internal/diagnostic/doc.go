// Package diagnostic collects structured errors, warnings and notes produced
// while checking an opactx project.
//
// Each entry carries a stable code, the check that produced it and, when the
// problem has a location, a path. Reports group entries by severity so a
// caller can decide between "failed" and "partial" outcomes.
package diagnostic
