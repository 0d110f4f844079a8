package aggregator

import (
	"github.com/statspanel/statspanel/internal/statspanel/domain"
)

// eventDeltas are the per-event figures folded identically into the Course,
// Slug and Student scopes.
type eventDeltas struct {
	diagnosticErrors  int
	diagnosticByKind  map[string]int
	testsRan          int
	testsPassed       int
	testErrors        int
	testErrorsByClass map[string]int
	styleOK           bool
	completionPercent float64
}

func computeDeltas(event *domain.ResultEvent) eventDeltas {
	deltas := eventDeltas{
		diagnosticErrors:  len(event.Errors),
		diagnosticByKind:  map[string]int{},
		testErrorsByClass: map[string]int{},
		styleOK:           event.Style == domain.MaxStyleScore,
	}

	for _, diagnostic := range event.Errors {
		deltas.diagnosticByKind[diagnostic.Kind]++
	}

	for _, suite := range event.TestSuites {
		for _, test := range suite.UnitTests {
			deltas.testsRan++
			switch test.Status {
			case domain.TestStatusPassed:
				deltas.testsPassed++
			case domain.TestStatusFailed:
				deltas.testErrors++
				deltas.testErrorsByClass[test.ExceptionClass]++
			}
		}
	}

	if deltas.testsRan > 0 {
		deltas.completionPercent = 100 * float64(deltas.testsPassed) / float64(deltas.testsRan)
	}
	return deltas
}

// apply folds the deltas into one scope's counters and frequency tables.
func apply(counters *domain.Counters, diagnostic domain.ErrorFrequencies, test domain.ErrorFrequencies, deltas eventDeltas) {
	counters.TotalCommits++
	counters.TotalTestsRan += deltas.testsRan
	counters.TotalTestsPassed += deltas.testsPassed
	counters.TotalTestErrors += deltas.testErrors
	counters.TotalDiagnosticErrors += deltas.diagnosticErrors
	if deltas.styleOK {
		counters.CommitsStyleOK++
	}
	diagnostic.Merge(deltas.diagnosticByKind)
	test.Merge(deltas.testErrorsByClass)
}
