package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/statspanel/statspanel/internal/statspanel/domain"
	"github.com/statspanel/statspanel/internal/statspanel/repository"
)

// Cache mirrors the last successfully persisted aggregates in memory so read
// endpoints never touch durable storage. The aggregation engine is the only
// writer and its writes are already serialized by the worker, so every put is
// a whole-entity last-write-wins overwrite. Entries are never independently
// expired or reloaded; Course, Slug and Student are held in full while
// Submissions keep a bounded recent window.
type Cache struct {
	mu           sync.RWMutex
	courses      map[string]*domain.Course
	slugs        map[string]*domain.Slug
	students     map[string]*domain.Student
	slugStudents map[string]*domain.SlugStudent
	submissions  *lru.Cache

	courseRepo      repository.CourseRepository
	slugRepo        repository.SlugRepository
	studentRepo     repository.StudentRepository
	slugStudentRepo repository.SlugStudentRepository
	submissionRepo  repository.SubmissionRepository

	hydrateWindow int
}

func New(
	courseRepo repository.CourseRepository,
	slugRepo repository.SlugRepository,
	studentRepo repository.StudentRepository,
	slugStudentRepo repository.SlugStudentRepository,
	submissionRepo repository.SubmissionRepository,
	submissionCacheSize int,
	hydrateWindow int,
) (*Cache, error) {
	submissions, err := lru.New(submissionCacheSize)
	if err != nil {
		return nil, err
	}
	return &Cache{
		courses:         map[string]*domain.Course{},
		slugs:           map[string]*domain.Slug{},
		students:        map[string]*domain.Student{},
		slugStudents:    map[string]*domain.SlugStudent{},
		submissions:     submissions,
		courseRepo:      courseRepo,
		slugRepo:        slugRepo,
		studentRepo:     studentRepo,
		slugStudentRepo: slugStudentRepo,
		submissionRepo:  submissionRepo,
		hydrateWindow:   hydrateWindow,
	}, nil
}

// Hydrate loads the full Course/Slug/Student/SlugStudent sets and the recent
// Submission window from durable storage. Runs once at process start, before
// the worker or any read endpoint is served.
func (c *Cache) Hydrate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	courses, err := c.courseRepo.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, "hydrating course cache")
	}
	for _, course := range courses {
		c.courses[course.Key()] = course
	}
	log.Infof("Loaded %d courses to cache", len(courses))

	slugs, err := c.slugRepo.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, "hydrating slug cache")
	}
	for _, slug := range slugs {
		c.slugs[slug.Key()] = slug
	}
	log.Infof("Loaded %d slugs to cache", len(slugs))

	students, err := c.studentRepo.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, "hydrating student cache")
	}
	for _, student := range students {
		c.students[student.Key()] = student
	}
	log.Infof("Loaded %d students to cache", len(students))

	slugStudents, err := c.slugStudentRepo.FindAll(ctx)
	if err != nil {
		return errors.Wrap(err, "hydrating slug student cache")
	}
	for _, record := range slugStudents {
		c.slugStudents[record.Key()] = record
	}
	log.Infof("Loaded %d slug students to cache", len(slugStudents))

	submissions, err := c.submissionRepo.FindRecent(ctx, c.hydrateWindow)
	if err != nil {
		return errors.Wrap(err, "hydrating submission cache")
	}
	// FindRecent is newest first; add oldest first so LRU eviction drops the
	// oldest entries.
	for i := len(submissions) - 1; i >= 0; i-- {
		c.submissions.Add(submissions[i].Hash, submissions[i])
	}
	log.Infof("Loaded %d submissions to cache", len(submissions))
	return nil
}

func (c *Cache) PutCourse(course *domain.Course) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courses[course.Key()] = course
}

func (c *Cache) PutSlug(slug *domain.Slug) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slugs[slug.Key()] = slug
}

func (c *Cache) PutStudent(student *domain.Student) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.students[student.Key()] = student
}

func (c *Cache) PutSlugStudent(record *domain.SlugStudent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slugStudents[record.Key()] = record
}

func (c *Cache) PutSubmission(submission *domain.Submission) {
	c.submissions.Add(submission.Hash, submission)
}

// GetCourseList returns a snapshot of all cached courses. Callers filter
// client-side; there is no query language or pagination.
func (c *Cache) GetCourseList() []*domain.Course {
	c.mu.RLock()
	defer c.mu.RUnlock()
	courses := make([]*domain.Course, 0, len(c.courses))
	for _, course := range c.courses {
		courses = append(courses, course)
	}
	return courses
}

func (c *Cache) GetSlugList() []*domain.Slug {
	c.mu.RLock()
	defer c.mu.RUnlock()
	slugs := make([]*domain.Slug, 0, len(c.slugs))
	for _, slug := range c.slugs {
		slugs = append(slugs, slug)
	}
	return slugs
}

func (c *Cache) GetStudentList() []*domain.Student {
	c.mu.RLock()
	defer c.mu.RUnlock()
	students := make([]*domain.Student, 0, len(c.students))
	for _, student := range c.students {
		students = append(students, student)
	}
	return students
}

func (c *Cache) GetStudent(uniid string) (*domain.Student, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	student, ok := c.students[uniid]
	return student, ok
}

// GetSubmissionList returns the cached recent submissions, newest first.
// Peek keeps reads from touching recency, so the window always evicts the
// oldest submission regardless of read traffic.
func (c *Cache) GetSubmissionList() []*domain.Submission {
	keys := c.submissions.Keys()
	submissions := make([]*domain.Submission, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if value, ok := c.submissions.Peek(keys[i]); ok {
			submissions = append(submissions, value.(*domain.Submission))
		}
	}
	return submissions
}

// Sizes reports entry counts per aggregate kind, for the metrics collector.
func (c *Cache) Sizes() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]int{
		"course":       len(c.courses),
		"slug":         len(c.slugs),
		"student":      len(c.students),
		"slug_student": len(c.slugStudents),
		"submission":   c.submissions.Len(),
	}
}
