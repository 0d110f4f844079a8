package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/statspanel/statspanel/internal/statspanel/cache"
	"github.com/statspanel/statspanel/internal/statspanel/domain"
	"github.com/statspanel/statspanel/internal/statspanel/queue"
	"github.com/statspanel/statspanel/internal/statspanel/testerclient"
)

// Tester is the subset of the testing-backend client used by the handlers.
type Tester interface {
	SubmitAsync(ctx context.Context, request *testerclient.SubmitRequest) error
	State(ctx context.Context) (string, error)
	Logs(ctx context.Context) (string, error)
}

type Handlers struct {
	queue  *queue.Queue
	cache  *cache.Cache
	tester Tester
}

func NewHandlers(q *queue.Queue, c *cache.Cache, tester Tester) *Handlers {
	return &Handlers{queue: q, cache: c, tester: tester}
}

// PostResult accepts one result event from the testing backend and enqueues
// it. The call returns as soon as the event is buffered; aggregation happens
// on the worker.
func (h *Handlers) PostResult(c *gin.Context) {
	event := &domain.ResultEvent{}
	if err := c.ShouldBindJSON(event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.queue.Enqueue(event)
	log.Infof("Queued result for user %s with hash %s, queue depth %d", event.Uniid, event.Hash, h.queue.Len())
	c.Status(http.StatusAccepted)
}

func (h *Handlers) GetCourses(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.GetCourseList())
}

func (h *Handlers) GetSlugs(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.GetSlugList())
}

func (h *Handlers) GetStudents(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.GetStudentList())
}

func (h *Handlers) GetSubmissions(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.GetSubmissionList())
}

// GetStudent returns one student's aggregate together with the derived
// average and median of their per-assignment highest percentages.
func (h *Handlers) GetStudent(c *gin.Context) {
	uniid := c.Param("uniid")
	student, ok := h.cache.GetStudent(uniid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"student": student,
		"stats":   h.cache.CalculateStudentStats(uniid),
	})
}

// PostSubmission forwards a manual test request to the testing backend.
func (h *Handlers) PostSubmission(c *gin.Context) {
	request := &testerclient.SubmitRequest{}
	if err := c.ShouldBindJSON(request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.tester.SubmitAsync(c.Request.Context(), request); err != nil {
		log.WithError(err).Error("Failed to forward submission to tester")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handlers) GetTesterState(c *gin.Context) {
	state, err := h.tester.State(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, state)
}

func (h *Handlers) GetTesterLogs(c *gin.Context) {
	logs, err := h.tester.Logs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, logs)
}
