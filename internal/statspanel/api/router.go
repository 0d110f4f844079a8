package api

import (
	"github.com/gin-gonic/gin"

	"github.com/statspanel/statspanel/internal/common/health"
)

// NewRouter wires the statspanel routes. The result webhook and the reads
// live under /api/v2 to match the url the testing backend is configured to
// call back on.
func NewRouter(handlers *Handlers, checker health.Checker) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", gin.WrapH(health.NewHealthCheckHttpHandler(checker)))

	api := router.Group("/api/v2")
	{
		api.POST("/results", handlers.PostResult)

		api.GET("/courses", handlers.GetCourses)
		api.GET("/slugs", handlers.GetSlugs)
		api.GET("/students", handlers.GetStudents)
		api.GET("/students/:uniid", handlers.GetStudent)
		api.GET("/submissions", handlers.GetSubmissions)

		api.POST("/submissions", handlers.PostSubmission)
		api.GET("/tester/state", handlers.GetTesterState)
		api.GET("/tester/logs", handlers.GetTesterLogs)
	}
	return router
}
