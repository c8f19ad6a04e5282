package shader

import (
	"bufio"
	"fmt"
	"strings"
)

// includeDirective marks a line that is replaced with a registered WGSL snippet:
//
//	//!include VoxelViewUniform
//
// It is a WGSL line comment, so unprocessed sources still parse.
const includeDirective = "//!include"

// PreProcessor expands include directives in WGSL source with registered snippets.
// Snippets are usually the embedded struct definitions that sit next to the Go types
// they mirror, so every shader shares one definition per struct.
type PreProcessor interface {
	// Register adds or replaces a named snippet.
	//
	// Parameters:
	//   - name: the name used after the include directive
	//   - source: the WGSL text to inject
	Register(name, source string)

	// Process expands every include directive. Each snippet is injected at most once;
	// later directives for the same name are dropped.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error naming the line of the first unknown include
	Process(source string) (string, error)
}

type preProcessor struct {
	snippets map[string]string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with no registered snippets.
//
// Returns:
//   - PreProcessor: the new pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{snippets: make(map[string]string)}
}

func (p *preProcessor) Register(name, source string) {
	p.snippets[name] = source
}

func (p *preProcessor) Process(source string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(source))
	seen := make(map[string]bool)

	sc := bufio.NewScanner(strings.NewReader(source))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		name, ok := strings.CutPrefix(strings.TrimSpace(line), includeDirective)
		if !ok {
			sb.WriteString(line)
			sb.WriteByte('\n')
			continue
		}
		name = strings.TrimSpace(name)
		snippet, found := p.snippets[name]
		if !found {
			return "", fmt.Errorf("line %d: unknown include %q", lineNum, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		sb.WriteString(strings.TrimRight(snippet, "\n"))
		sb.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("failed to scan shader source: %w", err)
	}
	return sb.String(), nil
}
