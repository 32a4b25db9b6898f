// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/poiesic/researchd/pipeline"
)

// stageSpec is one parsed --stage flag:
//
//	name=command
//	name:dep1+dep2=command
//
// The command runs under the shell with the task's query and parameters
// in the environment. Trailing "!" on the name marks the stage
// idempotent (safe to re-run on transient failure).
type stageSpec struct {
	name       string
	dependsOn  []string
	idempotent bool
	command    string
}

func parseStageSpec(raw string) (stageSpec, error) {
	head, command, found := strings.Cut(raw, "=")
	if !found || strings.TrimSpace(command) == "" {
		return stageSpec{}, fmt.Errorf("stage %q: expected name[:deps]=command", raw)
	}

	name, deps, _ := strings.Cut(strings.TrimSpace(head), ":")
	spec := stageSpec{command: command}
	if spec.idempotent = strings.HasSuffix(name, "!"); spec.idempotent {
		name = strings.TrimSuffix(name, "!")
	}
	if spec.name = strings.TrimSpace(name); spec.name == "" {
		return stageSpec{}, fmt.Errorf("stage %q: name is empty", raw)
	}
	for _, dep := range strings.Split(deps, "+") {
		if dep = strings.TrimSpace(dep); dep != "" {
			spec.dependsOn = append(spec.dependsOn, dep)
		}
	}
	return spec, nil
}

// buildGraph turns --stage flags into a validated pipeline graph of
// shell-command stages.
func buildGraph(rawSpecs []string) (*pipeline.Graph, error) {
	defs := make([]pipeline.StageDefinition, 0, len(rawSpecs))
	for _, raw := range rawSpecs {
		spec, err := parseStageSpec(raw)
		if err != nil {
			return nil, err
		}
		defs = append(defs, pipeline.StageDefinition{
			Name:       spec.name,
			DependsOn:  spec.dependsOn,
			Idempotent: spec.idempotent,
			Run:        commandStage(spec.command),
		})
	}
	return pipeline.BuildGraph(defs)
}

// commandStage runs a shell command as the stage's collaborator. The
// task's query, its parameters, and the outputs of dependency stages
// are passed through the environment; stdout becomes the stage output.
func commandStage(command string) pipeline.StageFunc {
	return func(ctx context.Context, parameters map[string]string, prior pipeline.Outputs) (string, error) {
		cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
		cmd.Env = append(cmd.Environ(), "RESEARCHD_QUERY="+parameters["query"])
		for key, value := range parameters {
			cmd.Env = append(cmd.Env, "RESEARCHD_PARAM_"+envKey(key)+"="+value)
		}
		for stage, output := range prior {
			cmd.Env = append(cmd.Env, "RESEARCHD_INPUT_"+envKey(stage)+"="+output)
		}

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				return "", err
			}
			return "", fmt.Errorf("%w: %s", err, detail)
		}
		return strings.TrimSpace(stdout.String()), nil
	}
}

func envKey(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	return mapped
}
