// Package rest exposes the UpTask JSON API over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/dmitrijs2005/uptask/internal/server/auth"
	"github.com/dmitrijs2005/uptask/internal/server/models"
	"github.com/dmitrijs2005/uptask/internal/server/ratelimit"
	"github.com/dmitrijs2005/uptask/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Accounts is the account lifecycle used by the /api/auth routes.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	ConfirmAccount(ctx context.Context, code string) error
	Login(ctx context.Context, email, password string) (*models.User, *auth.Pair, error)
	RequestConfirmationCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ValidateResetToken(ctx context.Context, code string) error
	UpdatePasswordWithToken(ctx context.Context, code, password string) error
	Refresh(ctx context.Context, refreshToken string) (*models.User, *auth.Pair, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error)
	UpdateCurrentPassword(ctx context.Context, userID, current, password string) error
}

type Projects interface {
	Load(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, managerID string, in services.ProjectInput) (*models.Project, error)
	List(ctx context.Context, userID string) ([]models.Project, error)
	Detail(ctx context.Context, p *models.Project) (*models.ProjectDetail, error)
	Update(ctx context.Context, p *models.Project, in services.ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, projectID string) error
}

type Tasks interface {
	Load(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, projectID string, in services.TaskInput) (*models.Task, error)
	List(ctx context.Context, projectID string) ([]models.Task, error)
	Detail(ctx context.Context, t *models.Task) (*models.Task, error)
	Update(ctx context.Context, t *models.Task, in services.TaskInput) (*models.Task, error)
	Delete(ctx context.Context, taskID string) error
	UpdateStatus(ctx context.Context, t *models.Task, userID string, status models.TaskStatus) (*models.Task, error)
}

type Notes interface {
	Load(ctx context.Context, id string) (*models.Note, error)
	Create(ctx context.Context, taskID, authorID, content string) (*models.Note, error)
	List(ctx context.Context, taskID string) ([]models.Note, error)
	Delete(ctx context.Context, noteID string) error
}

type Team interface {
	FindByEmail(ctx context.Context, email string) (*models.UserSummary, error)
	Members(ctx context.Context, projectID string) ([]models.UserSummary, error)
	Add(ctx context.Context, p *models.Project, userID string) error
	Remove(ctx context.Context, p *models.Project, userID string) error
}

// AccessVerifier validates access tokens taken from the session cookie.
type AccessVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

// Pinger reports database health; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services groups the business services the handlers delegate to.
type Services struct {
	Accounts Accounts
	Projects Projects
	Tasks    Tasks
	Notes    Notes
	Team     Team
}

// Config holds the listener address, the CORS origin and the session
// cookie attributes.
type Config struct {
	Address     string
	FrontendURL string
	Cookies     auth.CookiePolicy
}

// Server is the gin HTTP server of the API.
type Server struct {
	address  string
	log      logging.Logger
	accounts Accounts
	projects Projects
	tasks    Tasks
	notes    Notes
	team     Team
	tokens   AccessVerifier
	health   Pinger
	cookies  auth.CookiePolicy
	limiter  *ratelimit.Limiter
	engine   *gin.Engine
}

// NewServer builds the router. Routes are rate limited per client through
// counter, and GET /healthz pings health.
func NewServer(cfg Config, log logging.Logger, svc Services, tokens AccessVerifier, counter ratelimit.Counter, health Pinger) *Server {
	s := &Server{
		address:  cfg.Address,
		log:      log.With("module", "http_server"),
		accounts: svc.Accounts,
		projects: svc.Projects,
		tasks:    svc.Tasks,
		notes:    svc.Notes,
		team:     svc.Team,
		tokens:   tokens,
		health:   health,
		cookies:  cfg.Cookies,
	}
	s.limiter = ratelimit.NewLimiter(counter, log.With("module", "rate_limiter"),
		ratelimit.WithKeyFunc(s.rateKey),
		ratelimit.WithLimitHandler(s.abort),
	)

	s.engine = gin.New()
	s.engine.Use(gin.CustomRecovery(s.recover), s.requestID, s.requestLogger)
	if origin := strings.TrimRight(cfg.FrontendURL, "/"); origin != "" {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     []string{origin},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", common.RequestIDHeader},
			ExposeHeaders:    []string{common.RequestIDHeader, "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	s.routes()
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", s.healthz)
	r.NoRoute(func(c *gin.Context) { s.abort(c, errRouteNotFound) })

	api := r.Group("/api")

	authLimit := s.limiter.Middleware(ratelimit.AuthPolicy)
	a := api.Group("/auth")
	a.POST("/create-account", authLimit, s.createAccount)
	a.POST("/confirm-account", s.confirmAccount)
	a.POST("/login", authLimit, s.login)
	a.POST("/request-code", authLimit, s.requestConfirmationCode)
	a.POST("/forgot-password", authLimit, s.forgotPassword)
	a.POST("/validate-token", authLimit, s.validateToken)
	a.POST("/update-password/:token", authLimit, s.updatePasswordWithToken)
	a.POST("/refresh", s.refresh)
	a.GET("/user", s.authenticate, s.getUser)
	a.POST("/logout", s.authenticate, s.logout)
	a.PUT("/profile", s.authenticate, s.limiter.Middleware(ratelimit.ProfilePolicy), s.updateProfile)
	a.POST("/update-password", s.authenticate, s.limiter.Middleware(ratelimit.PasswordPolicy), s.updateCurrentPassword)

	projects := api.Group("/projects", s.authenticate)
	projects.GET("", s.listProjects)
	projects.POST("", s.createProject)

	project := projects.Group("/:projectId", s.loadProject, s.requireReader)
	project.GET("", s.getProject)
	project.PUT("", s.requireManager, s.updateProject)
	project.DELETE("", s.requireManager, s.deleteProject)

	project.GET("/tasks", s.listTasks)
	project.POST("/tasks", s.requireManager, s.createTask)

	task := project.Group("/tasks/:taskId", s.loadTask)
	task.GET("", s.getTask)
	task.PUT("", s.requireManager, s.updateTask)
	task.DELETE("", s.requireManager, s.deleteTask)
	task.POST("/status", s.updateTaskStatus)

	task.GET("/notes", s.listNotes)
	task.POST("/notes", s.createNote)
	task.DELETE("/notes/:noteId", s.loadNote, s.deleteNote)

	project.POST("/team/find", s.requireManager, s.findMember)
	project.GET("/team", s.listMembers)
	project.POST("/team", s.requireManager, s.addMember)
	project.DELETE("/team/:userId", s.requireManager, s.removeMember)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.log.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.health.PingContext(c.Request.Context()); err != nil {
		s.abort(c, common.Wrap(err, common.KindInternal, "DATABASE_UNAVAILABLE"))
		return
	}
	respond(c, http.StatusOK, "OK", nil)
}
