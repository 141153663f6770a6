package rest

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/dmitrijs2005/uptask/internal/server/access"
	"github.com/dmitrijs2005/uptask/internal/server/models"
	"github.com/dmitrijs2005/uptask/internal/server/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const scopeKey = "uptask.scope"

// errSessionUserGone rejects a valid access token whose user was deleted.
var errSessionUserGone = common.Unauthorized(common.ErrUserNotFound.Code)

// requestScope holds the entities resolved by the middleware chain for one
// request. Handlers read it instead of re-querying.
type requestScope struct {
	User    *models.User
	Project *models.Project
	Task    *models.Task
	Note    *models.Note
}

func scopeOf(c *gin.Context) *requestScope {
	if v, ok := c.Get(scopeKey); ok {
		if sc, ok := v.(*requestScope); ok {
			return sc
		}
	}
	sc := &requestScope{}
	c.Set(scopeKey, sc)
	return sc
}

func (s *Server) requestID(c *gin.Context) {
	id := c.GetHeader(common.RequestIDHeader)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Header(common.RequestIDHeader, id)
	c.Request = c.Request.WithContext(logging.ContextWith(c.Request.Context(), "request_id", id))
	c.Next()
}

func (s *Server) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	s.log.Info(c.Request.Context(), "request",
		"method", c.Request.Method,
		"path", path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"client_ip", c.ClientIP(),
	)
}

// authenticate resolves the caller from the access token cookie.
func (s *Server) authenticate(c *gin.Context) {
	token, _ := c.Cookie(common.AccessTokenCookieName)
	claims, err := s.tokens.VerifyAccess(token)
	if err != nil {
		s.abort(c, err)
		return
	}

	user, err := s.accounts.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			err = errSessionUserGone
		}
		s.abort(c, err)
		return
	}

	scopeOf(c).User = user
	c.Request = c.Request.WithContext(logging.ContextWith(c.Request.Context(), "user_id", user.ID))
	c.Next()
}

// rateKey limits signed-in callers by user id and everyone else by client.
func (s *Server) rateKey(c *gin.Context) string {
	if u := scopeOf(c).User; u != nil {
		return "user:" + u.ID
	}
	return ratelimit.ClientKey(c)
}

func (s *Server) pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if !validID(id) {
		s.abort(c, common.ErrInvalidID.WithDetails(map[string]string{name: common.ErrInvalidID.Code}))
		return "", false
	}
	return id, true
}

func (s *Server) loadProject(c *gin.Context) {
	id, ok := s.pathID(c, "projectId")
	if !ok {
		return
	}
	p, err := s.projects.Load(c.Request.Context(), id)
	if err != nil {
		s.abort(c, err)
		return
	}
	scopeOf(c).Project = p
	c.Next()
}

func (s *Server) requireReader(c *gin.Context) {
	sc := scopeOf(c)
	if err := access.RequireReader(sc.Project, sc.User.ID); err != nil {
		s.abort(c, err)
		return
	}
	c.Next()
}

func (s *Server) requireManager(c *gin.Context) {
	sc := scopeOf(c)
	if err := access.RequireManager(sc.Project, sc.User.ID); err != nil {
		s.abort(c, err)
		return
	}
	c.Next()
}

// loadTask resolves the task and checks it belongs to the scoped project.
func (s *Server) loadTask(c *gin.Context) {
	id, ok := s.pathID(c, "taskId")
	if !ok {
		return
	}
	t, err := s.tasks.Load(c.Request.Context(), id)
	if err != nil {
		s.abort(c, err)
		return
	}
	sc := scopeOf(c)
	if err := access.TaskInProject(t, sc.Project); err != nil {
		s.abort(c, err)
		return
	}
	sc.Task = t
	c.Next()
}

func (s *Server) loadNote(c *gin.Context) {
	id, ok := s.pathID(c, "noteId")
	if !ok {
		return
	}
	n, err := s.notes.Load(c.Request.Context(), id)
	if err != nil {
		s.abort(c, err)
		return
	}
	sc := scopeOf(c)
	if err := access.NoteInTask(n, sc.Task); err != nil {
		s.abort(c, err)
		return
	}
	sc.Note = n
	c.Next()
}
