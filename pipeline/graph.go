package pipeline

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Graph is an immutable, validated DAG of stage definitions. It is safe
// for concurrent read access and shared between the executor and any
// number of pipeline runs.
type Graph struct {
	stages      []StageDefinition // declaration order
	byName      map[string]int
	dependents  map[string][]string
	terminal    string
	fingerprint string
}

// BuildGraph validates stage definitions and constructs a Graph.
//
// Validation rejects:
//   - an empty definition set (ErrNoStages)
//   - two stages sharing a name (ErrDuplicateStage)
//   - a dependency on an undefined stage (ErrUnknownDependency)
//   - a nil stage function (ErrNilStageFunc)
//   - any dependency cycle, including self-reference (ErrCycle)
func BuildGraph(defs []StageDefinition) (*Graph, error) {
	if len(defs) == 0 {
		return nil, ErrNoStages
	}

	byName := make(map[string]int, len(defs))
	for i, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: stage %d has empty name", ErrDuplicateStage, i)
		}
		if _, exists := byName[def.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStage, def.Name)
		}
		if def.Run == nil {
			return nil, fmt.Errorf("%w: %q", ErrNilStageFunc, def.Name)
		}
		byName[def.Name] = i
	}

	dependents := make(map[string][]string, len(defs))
	for _, def := range defs {
		for _, dep := range def.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("%w: %q depends on %q", ErrUnknownDependency, def.Name, dep)
			}
			dependents[dep] = append(dependents[dep], def.Name)
		}
	}

	if err := checkAcyclic(defs, byName, dependents); err != nil {
		return nil, err
	}

	g := &Graph{
		stages:     make([]StageDefinition, len(defs)),
		byName:     byName,
		dependents: dependents,
	}
	copy(g.stages, defs)
	g.terminal = lastSink(g.stages, dependents)
	g.fingerprint = fingerprint(g.stages)
	return g, nil
}

// checkAcyclic runs Kahn's algorithm; leftover stages are on a cycle.
func checkAcyclic(defs []StageDefinition, byName map[string]int, dependents map[string][]string) error {
	indeg := make(map[string]int, len(defs))
	for _, def := range defs {
		indeg[def.Name] = len(def.DependsOn)
	}

	var queue []string
	for _, def := range defs {
		if indeg[def.Name] == 0 {
			queue = append(queue, def.Name)
		}
	}

	seen := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		seen++
		for _, next := range dependents[name] {
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if seen == len(defs) {
		return nil
	}

	var cyclic []string
	for _, def := range defs {
		if indeg[def.Name] > 0 {
			cyclic = append(cyclic, def.Name)
		}
	}
	sort.Strings(cyclic)
	return fmt.Errorf("%w: involving %s", ErrCycle, strings.Join(cyclic, ", "))
}

// lastSink returns the last declared stage with no dependents. Its output
// becomes the task's report on completion.
func lastSink(stages []StageDefinition, dependents map[string][]string) string {
	terminal := ""
	for _, def := range stages {
		if len(dependents[def.Name]) == 0 {
			terminal = def.Name
		}
	}
	return terminal
}

// fingerprint generates a deterministic identity for the graph shape using
// BLAKE2b hashing, so identical pipelines produce identical fingerprints.
func fingerprint(stages []StageDefinition) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for _, def := range stages {
		h.Write([]byte(def.Name))
		h.Write([]byte{0})
		deps := make([]string, len(def.DependsOn))
		copy(deps, def.DependsOn)
		sort.Strings(deps)
		for _, dep := range deps {
			h.Write([]byte(dep))
			h.Write([]byte{0})
		}
		if def.Idempotent {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		h.Write([]byte{0xFF})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Len returns the number of stages.
func (g *Graph) Len() int { return len(g.stages) }

// Fingerprint returns the stable identity of the graph shape.
func (g *Graph) Fingerprint() string { return g.fingerprint }

// Terminal returns the name of the stage whose output becomes the report:
// the last declared stage with no dependents.
func (g *Graph) Terminal() string { return g.terminal }

// Stage returns a stage definition by name.
func (g *Graph) Stage(name string) (StageDefinition, bool) {
	i, ok := g.byName[name]
	if !ok {
		return StageDefinition{}, false
	}
	return g.stages[i], true
}

// Stages returns the stage names in declaration order.
func (g *Graph) Stages() []string {
	names := make([]string, len(g.stages))
	for i, def := range g.stages {
		names[i] = def.Name
	}
	return names
}

// ReadyStages returns the frontier: stages not in completed whose every
// dependency is in completed. The result is in declaration order, so the
// schedule is deterministic for a given completed set.
func (g *Graph) ReadyStages(completed map[string]struct{}) []string {
	var ready []string
	for _, def := range g.stages {
		if _, done := completed[def.Name]; done {
			continue
		}
		ok := true
		for _, dep := range def.DependsOn {
			if _, done := completed[dep]; !done {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, def.Name)
		}
	}
	return ready
}
