package lexer

// OpConfig describes one entry of the operator table: its precedence,
// associativity, and the token kind it resolves to. Grounded on
// original_source's LexerOperators / OpConfig{precedence, left_associative,
// type}.
type OpConfig struct {
	Precedence    int
	LeftAssociative bool
	Kind          TokenKind
}

// trieNode is one node of a fixed 128-ary (ASCII) trie over operator
// lexemes, translating original_source/src/Utilities/trie.h's Trie<128>
// into an idiomatic Go byte-indexed tree. A true terminal means the path
// from the root to this node spells a complete operator lexeme.
type trieNode struct {
	children [128]*trieNode
	terminal bool
	config   OpConfig
	lexeme   string
}

// OpTrie is the longest-match operator table the lexer consults whenever it
// sees a character that could start a multi-character operator.
type OpTrie struct {
	root *trieNode
}

// NewOpTrie builds a trie pre-loaded with the default operator set from
// spec.md §4.2: + - * / .* ./ % ^.
func NewOpTrie() *OpTrie {
	t := &OpTrie{root: &trieNode{}}
	for lexeme, cfg := range defaultPrecedence() {
		t.Insert(lexeme, cfg)
	}
	return t
}

func defaultPrecedence() map[string]OpConfig {
	return map[string]OpConfig{
		"+":  {2, true, TokenOperator},
		"-":  {2, true, TokenOperator},
		"%":  {1, true, TokenOperator},
		"*":  {3, true, TokenOperator},
		"/":  {3, true, TokenOperator},
		".*": {2, true, TokenOperator},
		"./": {2, true, TokenOperator},
		"^":  {4, false, TokenOperator},
	}
}

// Insert adds or overwrites a lexeme's configuration, letting callers
// extend the table the way Module.precedence_table() lets the original
// register user operators.
func (t *OpTrie) Insert(lexeme string, cfg OpConfig) {
	n := t.root
	for i := 0; i < len(lexeme); i++ {
		c := lexeme[i]
		if int(c) >= 128 {
			return // outside the ASCII operator alphabet this lexer supports
		}
		if n.children[c] == nil {
			n.children[c] = &trieNode{}
		}
		n = n.children[c]
	}
	n.terminal = true
	n.config = cfg
	n.lexeme = lexeme
}

// LongestMatch walks s from offset start and returns the longest operator
// lexeme recognised by the trie, or ("", false, zero) if none matches.
func (t *OpTrie) LongestMatch(s []rune, start int) (string, OpConfig, bool) {
	n := t.root
	var bestLexeme string
	var bestConfig OpConfig
	found := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if c < 0 || c >= 128 || n.children[byte(c)] == nil {
			break
		}
		n = n.children[byte(c)]
		if n.terminal {
			bestLexeme = n.lexeme
			bestConfig = n.config
			found = true
		}
	}
	return bestLexeme, bestConfig, found
}

// Precedence looks up a previously-inserted operator's precedence and
// associativity; used by the parser's precedence-climbing loop.
func (t *OpTrie) Precedence(lexeme string) (OpConfig, bool) {
	n := t.root
	for i := 0; i < len(lexeme); i++ {
		c := lexeme[i]
		if int(c) >= 128 || n.children[c] == nil {
			return OpConfig{}, false
		}
		n = n.children[c]
	}
	if !n.terminal {
		return OpConfig{}, false
	}
	return n.config, true
}
