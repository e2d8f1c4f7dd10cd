package tools

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Register declares the kit's tools in a Genkit instance and returns refs
// for generate calls. Declarations are process-wide and registered once;
// calling Register twice with overlapping names is a programming error.
//
// The handlers installed here delegate to the declaration kit and only run
// when Genkit executes tools itself. The agent loop requests tool calls back
// instead of having Genkit run them, then dispatches against its own
// per-request kit, so conversation-scoped tools execute with the right
// bindings.
func Register(g *genkit.Genkit, kit *Kit) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(kit.ordered))
	for _, t := range kit.ordered {
		tool := t
		refs = append(refs, genkit.DefineTool(g, tool.Name(), tool.Description(),
			func(tc *ai.ToolContext, input map[string]any) (any, error) {
				return tool.Execute(tc, input)
			}))
	}
	return refs
}
