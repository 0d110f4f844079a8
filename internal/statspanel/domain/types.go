package domain

// Status values reported by the testing backend for a single unit test.
const (
	TestStatusPassed  = "PASSED"
	TestStatusFailed  = "FAILED"
	TestStatusSkipped = "SKIPPED"
)

// MaxStyleScore is the style grade of a commit with no style violations.
const MaxStyleScore = 100

// ResultEvent is one reported outcome of running a student's code against a
// test suite. Events arrive fully parsed from the testing backend and are
// treated as immutable once enqueued.
type ResultEvent struct {
	Uniid           string            `json:"uniid"`
	Hash            string            `json:"hash"`
	Slug            string            `json:"slug"`
	Root            string            `json:"root"`
	TestingPlatform string            `json:"testingPlatform"`
	Priority        int               `json:"priority"`
	CommitMessage   string            `json:"commitMessage"`
	GitStudentRepo  string            `json:"gitStudentRepo"`
	GitTestRepo     string            `json:"gitTestRepo"`
	Timestamp       int64             `json:"timestamp"`
	Failed          bool              `json:"failed"`
	Style           int               `json:"style"`
	Output          string            `json:"output"`
	DockerTimeout   int               `json:"dockerTimeout"`
	DockerExtra     []string          `json:"dockerExtra"`
	SystemExtra     []string          `json:"systemExtra"`
	Errors          []DiagnosticError `json:"errors"`
	Files           []SourceFile      `json:"files"`
	TestFiles       []SourceFile      `json:"testFiles"`
	ConsoleOutputs  []ConsoleOutput   `json:"consoleOutputs"`
	TestSuites      []TestSuite       `json:"testSuites"`
}

// DiagnosticError is one compiler or linter diagnostic attached to an event.
type DiagnosticError struct {
	Kind     string `json:"kind"`
	FileName string `json:"fileName"`
	LineNo   int    `json:"lineNo"`
	ColumnNo int    `json:"columnNo"`
	Message  string `json:"message"`
}

type SourceFile struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// ConsoleOutput is one stdout/stderr fragment captured during the test run.
type ConsoleOutput struct {
	Content string `json:"content"`
}

type TestSuite struct {
	Name        string     `json:"name"`
	File        string     `json:"file"`
	StartDate   int64      `json:"startDate"`
	EndDate     int64      `json:"endDate"`
	Weight      int        `json:"weight"`
	PassedCount int        `json:"passedCount"`
	Grade       float64    `json:"grade"`
	UnitTests   []UnitTest `json:"unitTests"`
}

type UnitTest struct {
	Name                  string   `json:"name"`
	Status                string   `json:"status"`
	Weight                int      `json:"weight"`
	TimeElapsed           float64  `json:"timeElapsed"`
	ExceptionClass        string   `json:"exceptionClass"`
	ExceptionMessage      string   `json:"exceptionMessage"`
	StackTrace            string   `json:"stackTrace"`
	PrintExceptionMessage bool     `json:"printExceptionMessage"`
	PrintStackTrace       bool     `json:"printStackTrace"`
	MethodsDependedUpon   []string `json:"methodsDependedUpon"`
	GroupsDependedUpon    []string `json:"groupsDependedUpon"`
}
