package fakeremote

import (
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// newRouters will return the api router
func (s *Server) newRouters() *gin.Engine {
	gin.DisableConsoleColor()
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestid.New())
	router.Use(gin.Recovery())
	router.Use(s.accessLog())
	router.Use(s.injectFailures())

	voter := s.authenticated(kindVoter)
	admin := s.authenticated(kindAdmin)
	anyone := s.authenticated("")

	v1 := router.Group(pathPrefix)
	{
		v1.POST("/auth/mahasiswa/login", s.loginVoter)
		v1.POST("/auth/admin/login", s.loginAdmin)
		v1.POST("/auth/logout", anyone, s.logout)
		v1.GET("/auth/me", voter, s.me)

		v1.GET("/kandidat", anyone, s.listCandidates)
		v1.GET("/kandidat/:id", anyone, s.getCandidate)
		v1.GET("/kandidat-with-votes", admin, s.listCandidatesWithVotes)
		v1.POST("/kandidat", admin, s.createCandidate)
		v1.POST("/kandidat/:id", admin, s.updateCandidate)
		v1.DELETE("/kandidat/:id", admin, s.deleteCandidate)

		v1.POST("/vote", voter, s.vote)
		v1.GET("/vote/status", voter, s.voteStatus)

		v1.GET("/mahasiswa", admin, s.listStudents)
		v1.GET("/mahasiswa/statistics", admin, s.studentStatistics)
		v1.POST("/mahasiswa/import", admin, s.importStudents)
		v1.GET("/mahasiswa/:id", admin, s.getStudent)
		v1.POST("/mahasiswa", admin, s.createStudent)
		v1.PUT("/mahasiswa/:id", admin, s.updateStudent)
		v1.DELETE("/mahasiswa/:id", admin, s.deleteStudent)
		v1.POST("/mahasiswa/:id/regenerate-token", admin, s.regenerateToken)

		v1.GET("/results", admin, s.results)
		v1.GET("/results/timeline", admin, s.resultsTimeline)
		v1.GET("/results/export", admin, s.exportResults)
		v1.GET("/dashboard/statistics", admin, s.dashboardStatistics)
	}
	return router
}

// accessLog counts and logs every request
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.mu.Lock()
		s.requests[routeKey(c.Request.Method, c.Request.URL.Path)]++
		s.mu.Unlock()

		c.Next()

		s.logger.Debug().
			Str("requestId", requestid.Get(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	}
}

// injectFailures answers with the failure registered for the route, if any
func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := routeKey(c.Request.Method, c.Request.URL.Path)
		s.mu.Lock()
		injected, ok := s.failures[key]
		if ok && injected.Once {
			delete(s.failures, key)
		}
		s.mu.Unlock()
		if !ok {
			c.Next()
			return
		}

		contentType := injected.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		c.Data(injected.Status, contentType, []byte(injected.Body))
		c.Abort()
	}
}

// success writes the {success, message, data} envelope
func success(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// failure writes the error envelope
func failure(c *gin.Context, status int, message string, errors map[string][]string) {
	body := gin.H{"success": false, "message": message}
	if len(errors) > 0 {
		body["errors"] = errors
	}
	c.JSON(status, body)
}

// notFound is the answer of unknown records
func notFound(c *gin.Context, message string) {
	failure(c, http.StatusNotFound, message, nil)
}
