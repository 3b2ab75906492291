package asc

import "fmt"

// NumericParseError reports a token that should have been a number.
type NumericParseError struct {
	Token string
	// Kind is the expected shape: "decimal", "integer" or "timestamp".
	Kind string
	Err  error
}

func (e *NumericParseError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Token)
}

func (e *NumericParseError) Unwrap() error { return e.Err }

// GrammarError reports a line that matches a known keyword but does not
// have the expected shape, or an enumerated token with an unknown literal.
type GrammarError struct {
	Keyword string
	Message string
}

func (e *GrammarError) Error() string {
	if e.Keyword == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Keyword, e.Message)
}

func tooFewTokens(keyword string, want, got int) error {
	return &GrammarError{
		Keyword: keyword,
		Message: fmt.Sprintf("expected at least %d tokens, got %d", want, got),
	}
}

func unknownLiteral(keyword, what, tok string) error {
	return &GrammarError{
		Keyword: keyword,
		Message: fmt.Sprintf("invalid %s %q", what, tok),
	}
}
