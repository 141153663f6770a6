package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/dmitrijs2005/uptask/internal/server/auth"
	"github.com/dmitrijs2005/uptask/internal/server/models"
	"github.com/dmitrijs2005/uptask/internal/server/ratelimit"
	"github.com/dmitrijs2005/uptask/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- accounts ---

type fakeAccounts struct {
	users map[string]*models.User

	registerFn func(in services.RegisterInput) (*models.User, error)
	loginFn    func(email, password string) (*models.User, *auth.Pair, error)
	refreshFn  func(token string) (*models.User, *auth.Pair, error)
	err        error

	lastEmail    string
	lastToken    string
	lastPassword string
}

func (f *fakeAccounts) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return f.registerFn(in)
}

func (f *fakeAccounts) ConfirmAccount(_ context.Context, code string) error {
	f.lastToken = code
	return f.err
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*models.User, *auth.Pair, error) {
	return f.loginFn(email, password)
}

func (f *fakeAccounts) RequestConfirmationCode(_ context.Context, email string) error {
	f.lastEmail = email
	return f.err
}

func (f *fakeAccounts) ForgotPassword(_ context.Context, email string) error {
	f.lastEmail = email
	return f.err
}

func (f *fakeAccounts) ValidateResetToken(_ context.Context, code string) error {
	f.lastToken = code
	return f.err
}

func (f *fakeAccounts) UpdatePasswordWithToken(_ context.Context, code, password string) error {
	f.lastToken, f.lastPassword = code, password
	return f.err
}

func (f *fakeAccounts) Refresh(_ context.Context, token string) (*models.User, *auth.Pair, error) {
	return f.refreshFn(token)
}

func (f *fakeAccounts) GetUser(_ context.Context, userID string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, userID, name, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := *f.users[userID]
	u.Name, u.Email = name, email
	return &u, nil
}

func (f *fakeAccounts) UpdateCurrentPassword(_ context.Context, _, current, password string) error {
	f.lastPassword = password
	return f.err
}

// --- projects, tasks, notes, team ---

type fakeWorkspace struct {
	projects map[string]*models.Project
	tasks    map[string]*models.Task
	notes    map[string]*models.Note

	deleted []string
	added   []string
	removed []string
	status  models.TaskStatus
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		projects: map[string]*models.Project{},
		tasks:    map[string]*models.Task{},
		notes:    map[string]*models.Note{},
	}
}

type fakeProjects struct{ w *fakeWorkspace }

func (f fakeProjects) Load(_ context.Context, id string) (*models.Project, error) {
	p, ok := f.w.projects[id]
	if !ok {
		return nil, common.ErrProjectNotFound
	}
	return p, nil
}

func (f fakeProjects) Create(_ context.Context, managerID string, in services.ProjectInput) (*models.Project, error) {
	p := &models.Project{ID: uuid.NewString(), ManagerID: managerID, ProjectName: in.ProjectName, ClientName: in.ClientName, Description: in.Description, Team: []string{}}
	f.w.projects[p.ID] = p
	return p, nil
}

func (f fakeProjects) List(_ context.Context, userID string) ([]models.Project, error) {
	out := []models.Project{}
	for _, p := range f.w.projects {
		if p.ManagerID == userID || p.HasMember(userID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f fakeProjects) Detail(_ context.Context, p *models.Project) (*models.ProjectDetail, error) {
	return &models.ProjectDetail{Project: *p, Tasks: []models.Task{}}, nil
}

func (f fakeProjects) Update(_ context.Context, p *models.Project, in services.ProjectInput) (*models.Project, error) {
	u := *p
	u.ProjectName, u.ClientName, u.Description = in.ProjectName, in.ClientName, in.Description
	return &u, nil
}

func (f fakeProjects) Delete(_ context.Context, id string) error {
	f.w.deleted = append(f.w.deleted, "project:"+id)
	return nil
}

type fakeTasks struct{ w *fakeWorkspace }

func (f fakeTasks) Load(_ context.Context, id string) (*models.Task, error) {
	t, ok := f.w.tasks[id]
	if !ok {
		return nil, common.ErrTaskNotFound
	}
	return t, nil
}

func (f fakeTasks) Create(_ context.Context, projectID string, in services.TaskInput) (*models.Task, error) {
	t := &models.Task{ID: uuid.NewString(), ProjectID: projectID, Name: in.Name, Description: in.Description, Status: models.TaskStatusPending}
	f.w.tasks[t.ID] = t
	return t, nil
}

func (f fakeTasks) List(_ context.Context, projectID string) ([]models.Task, error) {
	out := []models.Task{}
	for _, t := range f.w.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f fakeTasks) Detail(_ context.Context, t *models.Task) (*models.Task, error) { return t, nil }

func (f fakeTasks) Update(_ context.Context, t *models.Task, in services.TaskInput) (*models.Task, error) {
	u := *t
	u.Name, u.Description = in.Name, in.Description
	return &u, nil
}

func (f fakeTasks) Delete(_ context.Context, id string) error {
	f.w.deleted = append(f.w.deleted, "task:"+id)
	return nil
}

func (f fakeTasks) UpdateStatus(_ context.Context, t *models.Task, _ string, status models.TaskStatus) (*models.Task, error) {
	f.w.status = status
	u := *t
	u.Status = status
	return &u, nil
}

type fakeNotes struct{ w *fakeWorkspace }

func (f fakeNotes) Load(_ context.Context, id string) (*models.Note, error) {
	n, ok := f.w.notes[id]
	if !ok {
		return nil, common.ErrNoteNotFound
	}
	return n, nil
}

func (f fakeNotes) Create(_ context.Context, taskID, authorID, content string) (*models.Note, error) {
	n := &models.Note{ID: uuid.NewString(), TaskID: taskID, Content: content, CreatedBy: models.UserSummary{ID: authorID}}
	f.w.notes[n.ID] = n
	return n, nil
}

func (f fakeNotes) List(_ context.Context, taskID string) ([]models.Note, error) {
	return []models.Note{}, nil
}

func (f fakeNotes) Delete(_ context.Context, id string) error {
	f.w.deleted = append(f.w.deleted, "note:"+id)
	return nil
}

type fakeTeam struct{ w *fakeWorkspace }

func (f fakeTeam) FindByEmail(_ context.Context, email string) (*models.UserSummary, error) {
	return nil, common.ErrMemberNotFound
}

func (f fakeTeam) Members(_ context.Context, _ string) ([]models.UserSummary, error) {
	return []models.UserSummary{}, nil
}

func (f fakeTeam) Add(_ context.Context, p *models.Project, userID string) error {
	if p.HasMember(userID) {
		return common.ErrMemberAlreadyExists
	}
	f.w.added = append(f.w.added, userID)
	return nil
}

func (f fakeTeam) Remove(_ context.Context, p *models.Project, userID string) error {
	if !p.HasMember(userID) {
		return common.ErrMemberNotInProject
	}
	f.w.removed = append(f.w.removed, userID)
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

// --- harness ---

type harness struct {
	t        *testing.T
	srv      *Server
	tokens   *auth.TokenService
	accounts *fakeAccounts
	ws       *fakeWorkspace
	pinger   *fakePinger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens := auth.NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	accounts := &fakeAccounts{users: map[string]*models.User{}}
	ws := newFakeWorkspace()
	pinger := &fakePinger{}

	srv := NewServer(
		Config{Address: "127.0.0.1:0", FrontendURL: "http://localhost:5173", Cookies: auth.NewCookiePolicy(false, false, tokens.AccessTTL(), tokens.RefreshTTL())},
		logging.Nop(),
		Services{Accounts: accounts, Projects: fakeProjects{ws}, Tasks: fakeTasks{ws}, Notes: fakeNotes{ws}, Team: fakeTeam{ws}},
		tokens,
		ratelimit.NewMemoryCounter(0),
		pinger,
	)
	return &harness{t: t, srv: srv, tokens: tokens, accounts: accounts, ws: ws, pinger: pinger}
}

func (h *harness) addUser(name string) *models.User {
	u := &models.User{ID: uuid.NewString(), Name: name, Email: name + "@x.com", Confirmed: true}
	h.accounts.users[u.ID] = u
	return u
}

func (h *harness) addProject(manager *models.User, members ...*models.User) *models.Project {
	p := &models.Project{ID: uuid.NewString(), ProjectName: "Site", ManagerID: manager.ID, Team: []string{}}
	for _, m := range members {
		p.Team = append(p.Team, m.ID)
	}
	h.ws.projects[p.ID] = p
	return p
}

func (h *harness) addTask(p *models.Project) *models.Task {
	t := &models.Task{ID: uuid.NewString(), ProjectID: p.ID, Name: "Design", Status: models.TaskStatusPending}
	h.ws.tasks[t.ID] = t
	return t
}

// accessCookie returns a valid session cookie for u.
func (h *harness) accessCookie(u *models.User) *http.Cookie {
	h.t.Helper()
	pair, err := h.tokens.IssuePair(u.ID)
	if err != nil {
		h.t.Fatalf("IssuePair error: %v", err)
	}
	return &http.Cookie{Name: common.AccessTokenCookieName, Value: pair.AccessToken}
}

func (h *harness) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "harness")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return h.serve(req)
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

type decoded struct {
	Success     bool            `json:"success"`
	MessageCode string          `json:"messageCode"`
	StatusCode  int             `json:"statusCode"`
	Data        json.RawMessage `json:"data"`
	Errors      map[string]any  `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) decoded {
	t.Helper()
	var d decoded
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return d
}

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}
