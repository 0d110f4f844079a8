package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statspanel/statspanel/internal/common/util"
	"github.com/statspanel/statspanel/internal/statspanel/cache"
	"github.com/statspanel/statspanel/internal/statspanel/domain"
	"github.com/statspanel/statspanel/internal/statspanel/repository"
)

func TestProcessFansOutIdenticalCountersToAllScopes(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		require.NoError(t, engine.Process(ctx, passingEvent("a1", 1000)))

		course, err := env.courses.FindByGitUrl(ctx, "repoA")
		require.NoError(t, err)
		require.NotNil(t, course)
		slug, err := env.slugs.FindByCourseUrlAndName(ctx, "repoA", "ex1")
		require.NoError(t, err)
		require.NotNil(t, slug)
		student, err := env.students.FindByUniid(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, student)

		for _, counters := range []domain.Counters{course.Counters, slug.Counters, student.Counters} {
			assert.Equal(t, 1, counters.TotalCommits)
			assert.Equal(t, 2, counters.TotalTestsRan)
			assert.Equal(t, 2, counters.TotalTestsPassed)
			assert.Equal(t, 1, counters.CommitsStyleOK)
			assert.Equal(t, 0, counters.TotalDiagnosticErrors)
		}

		assert.Equal(t, 1, course.DifferentStudents)
		assert.Equal(t, 1, slug.DifferentStudents)
		assert.Equal(t, int64(1000), student.FirstTested)
		assert.Equal(t, int64(1000), student.LastTested)
		assert.Equal(t, 1, student.DifferentCourses)
		assert.Equal(t, 1, student.DifferentSlugs)
		assert.Equal(t, "git@host:s1/repo", student.GitRepo)
	})
}

func TestProcessAccumulatesAcrossEvents(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		require.NoError(t, engine.Process(ctx, passingEvent("a1", 1000)))

		second := passingEvent("a2", 2000)
		second.Style = 50
		second.Errors = []domain.DiagnosticError{{Kind: "NullPointer"}}
		second.TestSuites = []domain.TestSuite{
			{UnitTests: []domain.UnitTest{
				{Name: "t1", Status: domain.TestStatusPassed},
				{Name: "t2", Status: domain.TestStatusFailed, ExceptionClass: "AssertionError"},
			}},
		}
		require.NoError(t, engine.Process(ctx, second))

		course, err := env.courses.FindByGitUrl(ctx, "repoA")
		require.NoError(t, err)
		assert.Equal(t, 2, course.TotalCommits)
		assert.Equal(t, 4, course.TotalTestsRan)
		assert.Equal(t, 3, course.TotalTestsPassed)
		assert.Equal(t, 1, course.TotalTestErrors)
		assert.Equal(t, 1, course.TotalDiagnosticErrors)
		// style below maximum does not count
		assert.Equal(t, 1, course.CommitsStyleOK)
		assert.Equal(t, 1, course.DiagnosticCodeErrors["NullPointer"])
		assert.Equal(t, 1, course.TestCodeErrors["AssertionError"])

		student, err := env.students.FindByUniid(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), student.FirstTested)
		assert.Equal(t, int64(2000), student.LastTested)
		assert.Equal(t, []int64{1000, 2000}, student.Timestamps)
	})
}

func TestProcessKeepsHighestCompletionPercent(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		require.NoError(t, engine.Process(ctx, passingEvent("a1", 1000)))

		worse := passingEvent("a2", 2000)
		worse.TestSuites = []domain.TestSuite{
			{UnitTests: []domain.UnitTest{
				{Name: "t1", Status: domain.TestStatusPassed},
				{Name: "t2", Status: domain.TestStatusFailed},
				{Name: "t3", Status: domain.TestStatusFailed},
				{Name: "t4", Status: domain.TestStatusFailed},
			}},
		}
		require.NoError(t, engine.Process(ctx, worse))

		record, err := env.slugStudents.FindBySlugAndUniid(ctx, "ex1", "s1")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.InDelta(t, 100.0, record.HighestPercent, 0.001)
	})
}

func TestFailedRunKeepsHistoryButSkipsCounters(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		event := passingEvent("a1", 1000)
		event.Failed = true
		require.NoError(t, engine.Process(ctx, event))

		course, err := env.courses.FindByGitUrl(ctx, "repoA")
		require.NoError(t, err)
		assert.Nil(t, course)

		submissions, err := env.submissions.FindRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, submissions, 1)
		assert.Equal(t, "a1", submissions[0].Hash)

		jobs, err := env.jobs.FindRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.True(t, jobs[0].Failed)
	})
}

func TestProcessStampsMissingTimestampFromClock(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		engine.clock = &util.DummyClock{T: time.UnixMilli(5000)}
		event := passingEvent("a1", 0)
		require.NoError(t, engine.Process(ctx, event))

		student, err := env.students.FindByUniid(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, int64(5000), student.LastTested)
	})
}

func TestProcessNormalizesAnonymousEvents(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		event := passingEvent("a1", 1000)
		event.Uniid = ""
		event.Output = ""
		require.NoError(t, engine.Process(ctx, event))

		student, err := env.students.FindByUniid(ctx, domain.UnknownUniid)
		require.NoError(t, err)
		require.NotNil(t, student)

		jobs, err := env.jobs.FindRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, domain.NoOutput, jobs[0].Output)
	})
}

type failingSlugRepository struct {
	repository.SlugRepository
}

func (r failingSlugRepository) Save(ctx context.Context, slug *domain.Slug) error {
	return errors.New("storage unavailable")
}

func TestSaveFailureLeavesCacheUntouched(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		engine.slugs = failingSlugRepository{env.slugs}

		err := engine.Process(ctx, passingEvent("a1", 1000))
		require.Error(t, err)

		// the course save succeeded, but nothing may reach the cache when
		// the fan-out only partially persisted
		assert.Empty(t, env.cache.GetCourseList())
		assert.Empty(t, env.cache.GetSlugList())
		assert.Empty(t, env.cache.GetStudentList())
	})
}

func TestProcessUpdatesCacheAfterPersisting(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		require.NoError(t, engine.Process(ctx, passingEvent("a1", 1000)))

		require.Len(t, env.cache.GetCourseList(), 1)
		require.Len(t, env.cache.GetSlugList(), 1)
		require.Len(t, env.cache.GetStudentList(), 1)
		submissions := env.cache.GetSubmissionList()
		require.Len(t, submissions, 1)
		assert.Equal(t, "a1", submissions[0].Hash)

		stats := env.cache.CalculateStudentStats("s1")
		assert.InDelta(t, 100.0, stats.AverageGrade, 0.001)
	})
}

func TestJobOutputIsFlattenedForDisplay(t *testing.T) {
	withEngine(t, func(ctx context.Context, engine *Engine, env engineEnv) {
		event := passingEvent("a1", 1000)
		event.Output = "line one\nline two"
		event.ConsoleOutputs = []domain.ConsoleOutput{{Content: "first\n"}, {Content: "second"}}
		require.NoError(t, engine.Process(ctx, event))

		jobs, err := env.jobs.FindRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "line one<br>line two", jobs[0].Output)
		assert.Equal(t, "first<br>second", jobs[0].ConsoleOutput)
	})
}

func passingEvent(hash string, timestamp int64) *domain.ResultEvent {
	return &domain.ResultEvent{
		Uniid:          "s1",
		Hash:           hash,
		Slug:           "ex1",
		Root:           "course-a",
		GitStudentRepo: "git@host:s1/repo",
		GitTestRepo:    "repoA",
		Timestamp:      timestamp,
		Style:          domain.MaxStyleScore,
		Output:         "ok",
		TestSuites: []domain.TestSuite{
			{UnitTests: []domain.UnitTest{
				{Name: "t1", Status: domain.TestStatusPassed},
				{Name: "t2", Status: domain.TestStatusPassed},
			}},
		},
	}
}

type engineEnv struct {
	courses      repository.CourseRepository
	slugs        repository.SlugRepository
	students     repository.StudentRepository
	slugStudents repository.SlugStudentRepository
	submissions  repository.SubmissionRepository
	jobs         repository.JobRepository
	cache        *cache.Cache
}

func withEngine(t *testing.T, action func(ctx context.Context, engine *Engine, env engineEnv)) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{server.Addr()}})
	defer client.Close()

	env := engineEnv{
		courses:      repository.NewRedisCourseRepository(client),
		slugs:        repository.NewRedisSlugRepository(client),
		students:     repository.NewRedisStudentRepository(client),
		slugStudents: repository.NewRedisSlugStudentRepository(client),
		submissions:  repository.NewRedisSubmissionRepository(client),
		jobs:         repository.NewRedisJobRepository(client),
	}
	c, err := cache.New(env.courses, env.slugs, env.students, env.slugStudents, env.submissions, 100, 100)
	require.NoError(t, err)
	env.cache = c

	engine := NewEngine(env.courses, env.slugs, env.students, env.slugStudents, env.submissions, env.jobs, c)
	action(context.Background(), engine, env)
}
