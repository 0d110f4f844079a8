package domain

// ErrorFrequencies counts how many times each error kind has occurred within
// one aggregate scope. At most one entry exists per distinct kind and counts
// never decrease.
type ErrorFrequencies map[string]int

// Merge folds a per-event (kind -> count) grouping into the frequency table.
func (f ErrorFrequencies) Merge(deltas map[string]int) {
	for kind, count := range deltas {
		f[kind] += count
	}
}

// Counters is the set of rolled-up figures shared by all three aggregate
// scopes. Every successfully processed event contributes identical deltas to
// exactly one Course, one Slug and one Student.
type Counters struct {
	TotalCommits          int `json:"totalCommits"`
	TotalTestsRan         int `json:"totalTestsRan"`
	TotalTestsPassed      int `json:"totalTestsPassed"`
	TotalDiagnosticErrors int `json:"totalDiagnosticErrors"`
	TotalTestErrors       int `json:"totalTestErrors"`
	CommitsStyleOK        int `json:"commitsStyleOK"`
}

// Course aggregates results for one test repository.
type Course struct {
	GitUrl string `json:"gitUrl"`
	Name   string `json:"name"`
	Counters
	DifferentStudents    int              `json:"differentStudents"`
	Students             map[string]bool  `json:"students"`
	DiagnosticCodeErrors ErrorFrequencies `json:"diagnosticCodeErrors"`
	TestCodeErrors       ErrorFrequencies `json:"testCodeErrors"`
}

func NewCourse(gitUrl string, name string) *Course {
	return &Course{
		GitUrl:               gitUrl,
		Name:                 name,
		Students:             map[string]bool{},
		DiagnosticCodeErrors: ErrorFrequencies{},
		TestCodeErrors:       ErrorFrequencies{},
	}
}

func (c *Course) Key() string { return c.GitUrl }

// Slug aggregates results for one assignment within one course.
type Slug struct {
	CourseUrl string `json:"courseUrl"`
	Name      string `json:"name"`
	Counters
	DifferentStudents    int              `json:"differentStudents"`
	Students             map[string]bool  `json:"students"`
	DiagnosticCodeErrors ErrorFrequencies `json:"diagnosticCodeErrors"`
	TestCodeErrors       ErrorFrequencies `json:"testCodeErrors"`
}

func NewSlug(courseUrl string, name string) *Slug {
	return &Slug{
		CourseUrl:            courseUrl,
		Name:                 name,
		Students:             map[string]bool{},
		DiagnosticCodeErrors: ErrorFrequencies{},
		TestCodeErrors:       ErrorFrequencies{},
	}
}

func (s *Slug) Key() string { return SlugKey(s.CourseUrl, s.Name) }

// SlugKey is the natural key of a Slug: assignment names are only unique
// within one course.
func SlugKey(courseUrl string, name string) string {
	return courseUrl + "|" + name
}

// Student aggregates results for one student across all courses.
type Student struct {
	Uniid       string `json:"uniid"`
	GitRepo     string `json:"gitRepo"`
	FirstTested int64  `json:"firstTested"`
	LastTested  int64  `json:"lastTested"`
	Counters
	Timestamps           []int64          `json:"timestamps"`
	Courses              map[string]bool  `json:"courses"`
	Slugs                map[string]bool  `json:"slugs"`
	DifferentCourses     int              `json:"differentCourses"`
	DifferentSlugs       int              `json:"differentSlugs"`
	DiagnosticCodeErrors ErrorFrequencies `json:"diagnosticCodeErrors"`
	TestCodeErrors       ErrorFrequencies `json:"testCodeErrors"`
}

func NewStudent(uniid string, firstTested int64) *Student {
	return &Student{
		Uniid:                uniid,
		FirstTested:          firstTested,
		LastTested:           firstTested,
		Timestamps:           []int64{},
		Courses:              map[string]bool{},
		Slugs:                map[string]bool{},
		DiagnosticCodeErrors: ErrorFrequencies{},
		TestCodeErrors:       ErrorFrequencies{},
	}
}

func (s *Student) Key() string { return s.Uniid }

// SlugStudent records one student's progress on one assignment. It carries the
// highest completion percentage achieved so far and feeds the derived
// average/median grade statistics.
type SlugStudent struct {
	Uniid          string  `json:"uniid"`
	Slug           string  `json:"slug"`
	CourseUrl      string  `json:"courseUrl"`
	HighestPercent float64 `json:"highestPercent"`
}

func (s *SlugStudent) Key() string { return SlugStudentKey(s.Slug, s.Uniid) }

func SlugStudentKey(slug string, uniid string) string {
	return slug + "|" + uniid
}

// Submission is the append-only audit record of one event.
type Submission struct {
	Uniid           string `json:"uniid"`
	Slug            string `json:"slug"`
	Hash            string `json:"hash"`
	TestingPlatform string `json:"testingPlatform"`
	Root            string `json:"root"`
	Timestamp       int64  `json:"timestamp"`
	GitStudentRepo  string `json:"gitStudentRepo"`
	GitTestSource   string `json:"gitTestSource"`
}

// Job is the denormalized full copy of one processed event, kept for later
// inspection. Written once, never updated.
type Job struct {
	Uniid           string      `json:"uniid"`
	Slug            string      `json:"slug"`
	Root            string      `json:"root"`
	Hash            string      `json:"hash"`
	TestingPlatform string      `json:"testingPlatform"`
	Priority        int         `json:"priority"`
	CommitMessage   string      `json:"commitMessage"`
	Failed          bool        `json:"failed"`
	Output          string      `json:"output"`
	ConsoleOutput   string      `json:"consoleOutput"`
	TestSuites      []TestSuite `json:"testSuites"`
	Timestamp       int64       `json:"timestamp"`
	GitStudentRepo  string      `json:"gitStudentRepo"`
	GitTestRepo     string      `json:"gitTestRepo"`
	DockerTimeout   int         `json:"dockerTimeout"`
	DockerExtra     []string    `json:"dockerExtra"`
	SystemExtra     []string    `json:"systemExtra"`
}
