package assertions

import (
	"fmt"

	"github.com/abdul-hamid-achik/rorschach/packages/core/parser"
)

// ConfigurationError reports an expect entry that cannot be evaluated: an
// unknown kind or a malformed argument. It fails the request it belongs to.
type ConfigurationError struct {
	Kind    string
	Line    int
	Message string
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid %q expectation: %s", e.Kind, e.Message)
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func configErrorf(exp *parser.Expectation, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Kind: exp.Kind, Line: exp.Line, Message: fmt.Sprintf(format, args...)}
}
