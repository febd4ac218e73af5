package prisma

import (
	"fmt"
	"strings"
)

// Parse parses schema source text. In strict mode any parse error is
// returned. In lenient mode a malformed block is dropped and the remaining
// blocks are still parsed; schema files are often hand-written and
// partially non-conforming.
func Parse(filename, text string, strict bool) (*File, error) {
	file, err := fileParser.ParseString(filename, text)
	if err == nil {
		return file, nil
	}
	if strict {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	// Whole-file parse failed; recover block by block.
	merged := &File{}
	for _, block := range splitBlocks(text) {
		parsed, err := fileParser.ParseString(filename, block)
		if err != nil {
			continue
		}
		merged.Entries = append(merged.Entries, parsed.Entries...)
	}
	return merged, nil
}

// splitBlocks cuts schema text into top-level brace-delimited blocks so a
// single malformed declaration cannot take down the whole file.
func splitBlocks(text string) []string {
	var blocks []string
	var current strings.Builder
	depth := 0
	inString := false
	inComment := false

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			blocks = append(blocks, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		current.WriteRune(ch)

		if inComment {
			if ch == '\n' {
				inComment = false
			}
			continue
		}
		if inString {
			if ch == '"' && (i == 0 || runes[i-1] != '\\') {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '/':
			if i+1 < len(runes) && runes[i+1] == '/' {
				inComment = true
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				flush()
			}
		}
	}
	flush()
	return blocks
}
