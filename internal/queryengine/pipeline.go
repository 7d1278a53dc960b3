package queryengine

import "fmt"

// permittedStageOps is the fixed vocabulary a registered pipeline may use
//. It mirrors the stage set internal/database's
// Aggregate understands, plus "$expr" — a guard stage evaluated by this
// package itself before the rest of the pipeline runs (see guard.go).
var permittedStageOps = map[string]struct{}{
	"$match":     {},
	"$sort":      {},
	"$limit":     {},
	"$skip":      {},
	"$count":     {},
	"$project":   {},
	"$addFields": {},
	"$unwind":    {},
	"$group":     {},
	"$expr":      {},
}

// validatePipelineShape rejects a pipeline whose stages are not each a
// single-key object naming a permitted operator.
func validatePipelineShape(pipeline []map[string]any) error {
	if len(pipeline) == 0 {
		return fmt.Errorf("queryengine: pipeline must contain at least one stage")
	}
	for i, stage := range pipeline {
		if len(stage) != 1 {
			return fmt.Errorf("queryengine: stage %d must have exactly one operator", i)
		}
		for op := range stage {
			if _, ok := permittedStageOps[op]; !ok {
				return fmt.Errorf("queryengine: stage %d uses unpermitted operator %q", i, op)
			}
		}
	}
	return nil
}

// splitExprStages separates "$expr" guard stages from the stages to be
// forwarded to the storage-layer aggregate primitive, which has no notion
// of "$expr".
func splitExprStages(pipeline []map[string]any) (guards []string, rest []map[string]any) {
	for _, stage := range pipeline {
		if expr, ok := stage["$expr"].(string); ok {
			guards = append(guards, expr)
			continue
		}
		rest = append(rest, stage)
	}
	return guards, rest
}
