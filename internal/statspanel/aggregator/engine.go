package aggregator

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/statspanel/statspanel/internal/common/util"
	"github.com/statspanel/statspanel/internal/statspanel/cache"
	"github.com/statspanel/statspanel/internal/statspanel/domain"
	"github.com/statspanel/statspanel/internal/statspanel/repository"
)

// Engine folds one result event into the aggregate records it belongs to.
// Every successful event contributes identical counter deltas to exactly one
// Course, one Slug and one Student. All touched aggregates are persisted
// before any of them is pushed into the cache, so the cache never reflects an
// aggregate that failed to save and never runs ahead of durable storage
// within one event.
type Engine struct {
	courses      repository.CourseRepository
	slugs        repository.SlugRepository
	students     repository.StudentRepository
	slugStudents repository.SlugStudentRepository
	submissions  repository.SubmissionRepository
	jobs         repository.JobRepository
	cache        *cache.Cache
	clock        util.Clock
}

func NewEngine(
	courses repository.CourseRepository,
	slugs repository.SlugRepository,
	students repository.StudentRepository,
	slugStudents repository.SlugStudentRepository,
	submissions repository.SubmissionRepository,
	jobs repository.JobRepository,
	c *cache.Cache,
) *Engine {
	return &Engine{
		courses:      courses,
		slugs:        slugs,
		students:     students,
		slugStudents: slugStudents,
		submissions:  submissions,
		jobs:         jobs,
		cache:        c,
		clock:        &util.DefaultClock{},
	}
}

// Process normalizes one event, records its submission and job history, and,
// unless the run failed as a whole, folds its deltas into the three aggregate
// scopes. Failed runs keep their history but never touch counters.
func (e *Engine) Process(ctx context.Context, event *domain.ResultEvent) error {
	domain.Normalize(event)
	if event.Timestamp == 0 {
		event.Timestamp = e.clock.Now().UnixMilli()
	}

	if err := e.saveSubmission(ctx, event); err != nil {
		return err
	}
	if err := e.saveJob(ctx, event); err != nil {
		return err
	}
	if event.Failed {
		return nil
	}

	course, err := e.getCourse(ctx, event)
	if err != nil {
		return err
	}
	slug, err := e.getSlug(ctx, event, course)
	if err != nil {
		return err
	}
	student, err := e.getStudent(ctx, event)
	if err != nil {
		return err
	}

	deltas := computeDeltas(event)

	apply(&course.Counters, course.DiagnosticCodeErrors, course.TestCodeErrors, deltas)
	apply(&slug.Counters, slug.DiagnosticCodeErrors, slug.TestCodeErrors, deltas)
	apply(&student.Counters, student.DiagnosticCodeErrors, student.TestCodeErrors, deltas)

	course.Students[student.Uniid] = true
	course.DifferentStudents = len(course.Students)
	slug.Students[student.Uniid] = true
	slug.DifferentStudents = len(slug.Students)

	student.Timestamps = append(student.Timestamps, event.Timestamp)
	student.LastTested = event.Timestamp
	student.Courses[course.GitUrl] = true
	student.Slugs[slug.Name] = true
	student.DifferentCourses = len(student.Courses)
	student.DifferentSlugs = len(student.Slugs)

	record, err := e.getSlugStudent(ctx, event, course, slug)
	if err != nil {
		return err
	}
	if deltas.completionPercent > record.HighestPercent {
		record.HighestPercent = deltas.completionPercent
	}

	// all four aggregates are saved before any cache write, so a failure
	// mid-fan-out never leaves the cache ahead of durable storage
	if err := e.courses.Save(ctx, course); err != nil {
		return err
	}
	if err := e.slugs.Save(ctx, slug); err != nil {
		return err
	}
	if err := e.students.Save(ctx, student); err != nil {
		return err
	}
	if err := e.slugStudents.Save(ctx, record); err != nil {
		return err
	}

	e.cache.PutCourse(course)
	e.cache.PutSlug(slug)
	e.cache.PutStudent(student)
	e.cache.PutSlugStudent(record)

	log.Debugf("Aggregated result for user %s on %s", student.Uniid, slug.Name)
	return nil
}

func (e *Engine) getCourse(ctx context.Context, event *domain.ResultEvent) (*domain.Course, error) {
	course, err := e.courses.FindByGitUrl(ctx, event.GitTestRepo)
	if err != nil {
		return nil, err
	}
	if course == nil {
		course = domain.NewCourse(event.GitTestRepo, event.Root)
	}
	return course, nil
}

func (e *Engine) getSlug(ctx context.Context, event *domain.ResultEvent, course *domain.Course) (*domain.Slug, error) {
	slug, err := e.slugs.FindByCourseUrlAndName(ctx, course.GitUrl, event.Slug)
	if err != nil {
		return nil, err
	}
	if slug == nil {
		slug = domain.NewSlug(course.GitUrl, event.Slug)
	}
	return slug, nil
}

func (e *Engine) getStudent(ctx context.Context, event *domain.ResultEvent) (*domain.Student, error) {
	student, err := e.students.FindByUniid(ctx, event.Uniid)
	if err != nil {
		return nil, err
	}
	if student == nil {
		student = domain.NewStudent(event.Uniid, event.Timestamp)
	}
	if student.GitRepo == "" && event.GitStudentRepo != "" {
		student.GitRepo = event.GitStudentRepo
	}
	return student, nil
}

func (e *Engine) getSlugStudent(ctx context.Context, event *domain.ResultEvent, course *domain.Course, slug *domain.Slug) (*domain.SlugStudent, error) {
	record, err := e.slugStudents.FindBySlugAndUniid(ctx, slug.Name, event.Uniid)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &domain.SlugStudent{Uniid: event.Uniid, Slug: slug.Name, CourseUrl: course.GitUrl}
	}
	return record, nil
}

func (e *Engine) saveSubmission(ctx context.Context, event *domain.ResultEvent) error {
	submission := &domain.Submission{
		Uniid:           event.Uniid,
		Slug:            event.Slug,
		Hash:            event.Hash,
		TestingPlatform: event.TestingPlatform,
		Root:            event.Root,
		Timestamp:       event.Timestamp,
		GitStudentRepo:  event.GitStudentRepo,
		GitTestSource:   event.GitTestRepo,
	}
	if err := e.submissions.Save(ctx, submission); err != nil {
		return err
	}
	e.cache.PutSubmission(submission)
	return nil
}

func (e *Engine) saveJob(ctx context.Context, event *domain.ResultEvent) error {
	console := make([]string, 0, len(event.ConsoleOutputs))
	for _, output := range event.ConsoleOutputs {
		console = append(console, output.Content)
	}
	job := &domain.Job{
		Uniid:           event.Uniid,
		Slug:            event.Slug,
		Root:            event.Root,
		Hash:            event.Hash,
		TestingPlatform: event.TestingPlatform,
		Priority:        event.Priority,
		CommitMessage:   event.CommitMessage,
		Failed:          event.Failed,
		Output:          strings.ReplaceAll(event.Output, "\n", "<br>"),
		ConsoleOutput:   strings.ReplaceAll(strings.Join(console, ""), "\n", "<br>"),
		TestSuites:      event.TestSuites,
		Timestamp:       event.Timestamp,
		GitStudentRepo:  event.GitStudentRepo,
		GitTestRepo:     event.GitTestRepo,
		DockerTimeout:   event.DockerTimeout,
		DockerExtra:     event.DockerExtra,
		SystemExtra:     event.SystemExtra,
	}
	return e.jobs.Save(ctx, job)
}
