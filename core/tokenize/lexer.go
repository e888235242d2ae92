package tokenize

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Raw token names produced by the participle lexer. The layout pass turns
// them into Python tokens.
const (
	ruleComment      = "Comment"
	ruleLongString   = "LongString"
	ruleOpenLong     = "OpenLongString"
	ruleString       = "String"
	ruleOpenString   = "OpenString"
	ruleNumber       = "Number"
	ruleName         = "Name"
	ruleContinuation = "Continuation"
	ruleNewline      = "Newline"
	ruleWhitespace   = "Whitespace"
	ruleOp           = "Op"
)

const stringPrefix = `(?i:rb|br|fr|rf|b|r|u|f)?`

// pyLexer splits Python source into raw tokens. Rules are tried in order and
// the first match wins: each terminated string form comes before the rule
// that only fires on its unterminated opening quote, and triple quotes are
// tried before single ones so that an unterminated triple quote is never
// read as an empty string followed by a quote.
var pyLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: ruleComment, Pattern: `#[^\r\n]*`},
	{Name: ruleLongString, Pattern: stringPrefix +
		`(?:'''(?:\\(?s:.)|[^\\])*?'''|"""(?:\\(?s:.)|[^\\])*?""")`},
	{Name: ruleOpenLong, Pattern: stringPrefix + `(?:'''|""")`},
	{Name: ruleString, Pattern: stringPrefix +
		`(?:'(?:\\(?s:.)|[^\\'\r\n])*'|"(?:\\(?s:.)|[^\\"\r\n])*")`},
	{Name: ruleOpenString, Pattern: stringPrefix + `(?:'|")`},
	{Name: ruleNumber, Pattern: `0[xX](?:_?[0-9a-fA-F])+` +
		`|0[bB](?:_?[01])+` +
		`|0[oO](?:_?[0-7])+` +
		`|(?:(?:[0-9](?:_?[0-9])*)?\.[0-9](?:_?[0-9])*|[0-9](?:_?[0-9])*\.?)(?:[eE][-+]?[0-9](?:_?[0-9])*)?[jJ]?`},
	{Name: ruleName, Pattern: `[\p{L}\p{Nl}_][\p{L}\p{Nl}\p{Mn}\p{Mc}\p{Nd}\p{Pc}]*`},
	{Name: ruleContinuation, Pattern: `\\\r?\n`},
	{Name: ruleNewline, Pattern: `\r?\n`},
	{Name: ruleWhitespace, Pattern: `[ \t\f]+|\r`},
	{Name: ruleOp, Pattern: `\*\*=|//=|>>=|<<=|\.\.\.|->|:=|!=|==|<=|>=|<>|\*\*|//|<<|>>|[-+*/%&|^@]=|[-+*/%&|^~<>=.,:;@()\[\]{}!]`},
})

var symbols = pyLexer.Symbols()

var (
	symComment      = symbols[ruleComment]
	symLongString   = symbols[ruleLongString]
	symOpenLong     = symbols[ruleOpenLong]
	symString       = symbols[ruleString]
	symOpenString   = symbols[ruleOpenString]
	symNumber       = symbols[ruleNumber]
	symName         = symbols[ruleName]
	symContinuation = symbols[ruleContinuation]
	symNewline      = symbols[ruleNewline]
	symWhitespace   = symbols[ruleWhitespace]
	symOp           = symbols[ruleOp]
)
