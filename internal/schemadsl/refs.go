package schemadsl

import (
	"slices"
	"strings"
)

const (
	definitionsPrefix = "#/definitions/"
	defsPrefix        = "#/$defs/"
)

// refSite is one $ref occurrence: the definition it names and where it sits.
type refSite struct {
	Name string
	Path string
}

// collectRefs walks object fields and array items below node and appends
// every $ref it finds, in document order.
func collectRefs(node any, path string, out []refSite) ([]refSite, error) {
	m, ok := asMapping(node)
	if !ok {
		return nil, nodeErrorf(path, "must be a mapping.")
	}

	if raw, ok := m.Get("$ref"); ok {
		name, err := refName(raw, path)
		if err != nil {
			return nil, err
		}

		return append(out, refSite{Name: name, Path: path}), nil
	}

	kind, _ := m.Get("type")

	switch kind {
	case TypeObject.String():
		raw, _ := m.Get("fields")
		if raw == nil {
			return out, nil
		}

		fields, ok := asMapping(raw)
		if !ok {
			return nil, nodeErrorf(path+".fields", "must be a mapping.")
		}

		for _, name := range fields.Keys() {
			field, _ := fields.Get(name)

			var err error
			if out, err = collectRefs(field, path+".fields."+name, out); err != nil {
				return nil, err
			}
		}
	case TypeArray.String():
		items, _ := m.Get("items")
		if items == nil {
			return out, nil
		}

		return collectRefs(items, path+".items", out)
	}

	return out, nil
}

// refName extracts the definition name from "#/definitions/<Name>" or
// "#/$defs/<Name>".
func refName(raw any, path string) (string, error) {
	ref, ok := raw.(string)
	if !ok {
		return "", nodeErrorf(path+".$ref", "must be a string.")
	}

	var name string

	switch {
	case strings.HasPrefix(ref, definitionsPrefix):
		name = strings.TrimPrefix(ref, definitionsPrefix)
	case strings.HasPrefix(ref, defsPrefix):
		name = strings.TrimPrefix(ref, defsPrefix)
	default:
		return "", nodeErrorf(path+".$ref", "must use #/definitions/<Name> (or #/$defs/<Name>): %s", ref)
	}

	if name == "" || strings.Contains(name, "/") {
		return "", nodeErrorf(path+".$ref", "target is invalid: %s", ref)
	}

	return name, nil
}

// validateReferences checks that every $ref names an existing definition and
// that definitions do not reference each other in a cycle.
func validateReferences(schema any, definitions *Mapping) error {
	sites, err := collectRefs(schema, "schema", nil)
	if err != nil {
		return err
	}

	if err := checkTargets(sites, definitions); err != nil {
		return err
	}

	graph := make(map[string][]string, definitions.Len())

	for _, name := range definitions.Keys() {
		body, _ := definitions.Get(name)

		sites, err := collectRefs(body, "definitions."+name, nil)
		if err != nil {
			return err
		}

		if err := checkTargets(sites, definitions); err != nil {
			return err
		}

		var edges []string

		for _, s := range sites {
			if !slices.Contains(edges, s.Name) {
				edges = append(edges, s.Name)
			}
		}

		graph[name] = edges
	}

	return findCycle(graph)
}

func checkTargets(sites []refSite, definitions *Mapping) error {
	for _, s := range sites {
		if !definitions.Has(s.Name) {
			return dslErrorf(s.Path, "%s: Reference not found: %s", s.Path, s.Name)
		}
	}

	return nil
}

type visitState int

const (
	unvisited visitState = iota
	inProgress
	done
)

// findCycle runs a depth-first traversal over the definition graph, starting
// from each definition in name order. The first back edge found is reported
// with the full cycle, e.g. "A -> B -> A".
func findCycle(graph map[string][]string) error {
	state := make(map[string]visitState, len(graph))

	var stack []string

	var visit func(name string) error

	visit = func(name string) error {
		switch state[name] {
		case inProgress:
			start := slices.Index(stack, name)
			cycle := append(slices.Clone(stack[start:]), name)

			return dslErrorf("definitions", "Reference cycle detected: %s", strings.Join(cycle, " -> "))
		case done:
			return nil
		}

		state[name] = inProgress
		stack = append(stack, name)

		for _, next := range graph[name] {
			if err := visit(next); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done

		return nil
	}

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		if err := visit(name); err != nil {
			return err
		}
	}

	return nil
}
