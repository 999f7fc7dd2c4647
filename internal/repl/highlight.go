package repl

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// condLexer tokenizes the surface syntax cond.Node.String() prints
// ("key(5) = 42", "(A AND B)", "NOT exists(key(7))"). There is no stock
// chroma lexer for it, so one is built from chroma's regex-rule API the
// way lexers.Get("sql") is backed internally, generalized from a full SQL
// grammar down to this condition-tree grammar.
var condLexer = chroma.MustNewLexer(
	&chroma.Config{Name: "stash-condition", Filenames: []string{}},
	chroma.Rules{
		"root": {
			{Pattern: `\s+`, Type: chroma.Whitespace, Mutator: nil},
			{Pattern: `\b(AND|OR|NOT)\b`, Type: chroma.Keyword, Mutator: nil},
			{Pattern: `\b(key|name|exists)\b`, Type: chroma.NameFunction, Mutator: nil},
			{Pattern: `[=>]`, Type: chroma.Operator, Mutator: nil},
			{Pattern: `"[^"]*"`, Type: chroma.LiteralString, Mutator: nil},
			{Pattern: `-?\d+`, Type: chroma.LiteralNumberInteger, Mutator: nil},
			{Pattern: `\b(AUTO|NULL)\b`, Type: chroma.KeywordConstant, Mutator: nil},
			{Pattern: `[()]`, Type: chroma.Punctuation, Mutator: nil},
			{Pattern: `.`, Type: chroma.Text, Mutator: nil},
		},
	},
)

var condFormatter = formatters.Get("terminal256")
var condStyle = styles.Get("monokai")

// highlightCondition returns s with ANSI terminal syntax highlighting
// applied, or s unchanged on any lexer/formatter error (mirrors
// highlight.SQL's fail-open behavior).
func highlightCondition(s string) string {
	if s == "" {
		return s
	}
	iterator, err := condLexer.Tokenise(nil, s)
	if err != nil {
		return s
	}
	var buf bytes.Buffer
	if err := condFormatter.Format(&buf, condStyle, iterator); err != nil {
		return s
	}
	return strings.TrimRight(buf.String(), "\n")
}
