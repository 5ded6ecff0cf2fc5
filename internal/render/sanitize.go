// Package render contains the rendering pipeline: script sanitization,
// render command construction, child-process supervision, artifact
// location and the per-job orchestrator that ties them together.
package render

import (
	"strings"

	"scenecast/internal/pkg/errors"
)

// forbiddenImports are module names whose import statements are
// rejected before a script reaches the renderer subprocess.
var forbiddenImports = []string{"os", "sys", "subprocess", "eval", "exec", "__import__"}

// forbiddenCalls are function-like tokens rejected anywhere in the
// script body: file access, interactive input, dynamic execution.
var forbiddenCalls = []string{"open(", "file(", "input(", "raw_input(", "eval(", "exec(", "__import__("}

// Sanitize checks a scene script against a fixed textual denylist and
// returns it unchanged when clean.
//
// Matching is substring-based, not AST-based, so it can both over- and
// under-block. It is a defense-in-depth measure for scripts handed to
// the renderer, not a sandbox guarantee.
func Sanitize(script string) (string, error) {
	for _, name := range forbiddenImports {
		if strings.Contains(script, "import "+name) || strings.Contains(script, "from "+name) {
			return "", errors.Validationf("forbidden import: %s", name)
		}
	}
	for _, token := range forbiddenCalls {
		if strings.Contains(script, token) {
			return "", errors.Validationf("forbidden keyword: %s", token)
		}
	}
	return script, nil
}
