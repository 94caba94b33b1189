// Package patterns holds the immutable rule tables behind content scoring,
// identifier extraction and bot-behavior detection.
//
// A Table is built once (normally by Default) and handed to every component
// that needs it. Components never mutate a Table, so one value can be shared
// across goroutines, and tests can substitute small hand-built tables.
package patterns

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
)

// WeightedTerm is a literal term with a severity weight in [0,100].
type WeightedTerm struct {
	Term   string
	Weight int
}

// Rule is a compiled case-insensitive expression with a fixed weight.
type Rule struct {
	Source string
	Expr   *regexp.Regexp
	Weight int
}

// NewRule compiles a case-insensitive rule. It panics on an invalid expression.
func NewRule(source string, weight int) Rule {
	return Rule{
		Source: source,
		Expr:   regexp.MustCompile("(?i)" + source),
		Weight: weight,
	}
}

// Table is the complete, read-only rule set.
type Table struct {
	// Keywords are matched against the case-folded text, in order.
	Keywords []WeightedTerm

	// Emojis are matched against the original text, in order.
	Emojis []WeightedTerm

	SlangRules   []Rule
	ContextRules []Rule

	// WholeWordMaxLen is the longest keyword that must match a whole token
	// rather than any substring. Zero disables whole-token matching.
	WholeWordMaxLen int

	// InlineTemplatePhrases and InlineCommands drive the per-message bot indicators.
	InlineTemplatePhrases []string
	InlineCommands        []string

	Identifiers []IdentifierPattern
	Validators  map[domain.Category]Validator

	Behavior BehaviorVocabulary
	Weights  Weights
}

// Fold case-folds text for keyword comparison.
// A new Caser is used per call because cases.Caser is not safe for concurrent use.
func Fold(text string) string {
	return cases.Fold().String(text)
}

// ContainsAny reports whether folded text contains any of the phrases.
func ContainsAny(folded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}

	return false
}

// WordListExpr builds a case-insensitive whole-word alternation from literal phrases.
func WordListExpr(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}

	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Default returns the production rule set.
func Default() *Table {
	return &Table{
		Keywords:              defaultKeywords(),
		Emojis:                defaultEmojis(),
		SlangRules:            defaultSlangRules(),
		ContextRules:          defaultContextRules(),
		WholeWordMaxLen:       defaultWholeWordMaxLen,
		InlineTemplatePhrases: defaultInlineTemplatePhrases,
		InlineCommands:        defaultInlineCommands,
		Identifiers:           defaultIdentifiers(),
		Validators:            defaultValidators(),
		Behavior:              defaultBehaviorVocabulary(),
		Weights:               DefaultWeights(),
	}
}
