package parser

// Syntax is the text pipeline a suite run is driven through: delimiter
// rewrite, bind substitution, structural parse and per-request dump.
type Syntax interface {
	Precompile(text string) string
	Compile(text string, binds Binds) string
	SearchVars(text string) []string
	Parse(text, filename string) (*TestFile, error)
	ParseRequest(text string) (*RequestSpec, error)
	Dump(req *RequestSpec) (string, error)
}

// YAML is the Syntax for YAML test files.
type YAML struct{}

var _ Syntax = YAML{}

func (YAML) Precompile(text string) string                  { return Precompile(text) }
func (YAML) Compile(text string, binds Binds) string        { return Compile(text, binds) }
func (YAML) SearchVars(text string) []string                { return SearchVars(text) }
func (YAML) Parse(text, filename string) (*TestFile, error) { return Parse(text, filename) }
func (YAML) ParseRequest(text string) (*RequestSpec, error) { return ParseRequest(text) }
func (YAML) Dump(req *RequestSpec) (string, error)          { return Dump(req) }
