package domain

const (
	// UnknownUniid marks events that arrived without a student identifier.
	UnknownUniid = "NaN"
	// NoOutput marks events that arrived without console output.
	NoOutput = "no output"
)

// Normalize fills structurally required but possibly absent fields of an
// incoming event with safe defaults, so that downstream aggregation never has
// to branch on absence. No other field is altered and normalization cannot
// fail.
func Normalize(e *ResultEvent) {
	if e.Uniid == "" {
		e.Uniid = UnknownUniid
	}
	if e.Errors == nil {
		e.Errors = []DiagnosticError{}
	}
	if e.Files == nil {
		e.Files = []SourceFile{}
	}
	if e.TestFiles == nil {
		e.TestFiles = []SourceFile{}
	}
	if e.TestSuites == nil {
		e.TestSuites = []TestSuite{}
	}
	if e.ConsoleOutputs == nil {
		e.ConsoleOutputs = []ConsoleOutput{}
	}
	if e.Output == "" {
		e.Output = NoOutput
	}
}
