package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/server/mail"
	"github.com/dmitrijs2005/uptask/internal/server/models"
	notesrepo "github.com/dmitrijs2005/uptask/internal/server/repositories/notes"
	projectsrepo "github.com/dmitrijs2005/uptask/internal/server/repositories/projects"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/ratelimits"
	refreshrepo "github.com/dmitrijs2005/uptask/internal/server/repositories/refreshtokens"
	tasksrepo "github.com/dmitrijs2005/uptask/internal/server/repositories/tasks"
	tokensrepo "github.com/dmitrijs2005/uptask/internal/server/repositories/tokens"
	usersrepo "github.com/dmitrijs2005/uptask/internal/server/repositories/users"
	"github.com/jackc/pgx/v5/pgconn"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

var mockDSN atomic.Int64

// newSQLMockDB returns a sqlmock-backed handle whose rollbacks restore st to
// its state at Begin.
func newSQLMockDB(t *testing.T, st *store) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	dsn := fmt.Sprintf("services-%d", mockDSN.Add(1))
	raw, mock, err := sqlmock.NewWithDSN(dsn)
	if err != nil {
		t.Fatalf("sqlmock.NewWithDSN error: %v", err)
	}
	db := sql.OpenDB(txConnector{dsn: dsn, drv: raw.Driver(), s: st})
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		db.Close()
		raw.Close()
	})
	return db, mock
}

type txConnector struct {
	dsn string
	drv driver.Driver
	s   *store
}

func (c txConnector) Connect(context.Context) (driver.Conn, error) {
	conn, err := c.drv.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return txConn{Conn: conn, s: c.s}, nil
}

func (c txConnector) Driver() driver.Driver { return c.drv }

type txConn struct {
	driver.Conn
	s *store
}

func (c txConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c txConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	var (
		tx  driver.Tx
		err error
	)
	if b, ok := c.Conn.(driver.ConnBeginTx); ok {
		tx, err = b.BeginTx(ctx, opts)
	} else {
		tx, err = c.Conn.Begin()
	}
	if err != nil {
		return nil, err
	}
	c.s.mark("tx.Begin")
	return &storeTx{Tx: tx, s: c.s, snap: c.s.snapshot()}, nil
}

// storeTx records transaction boundaries in store.calls.
type storeTx struct {
	driver.Tx
	s    *store
	snap *store
}

func (t *storeTx) Commit() error {
	t.s.mark("tx.Commit")
	return t.Tx.Commit()
}

func (t *storeTx) Rollback() error {
	t.s.restore(t.snap)
	t.s.mark("tx.Rollback")
	return t.Tx.Rollback()
}

// expectTx queues n committed transactions.
func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

// store is an in-memory stand-in for the database shared by every fake
// repository. Transactions are not isolated, but a rollback discards every
// write made since Begin.
type store struct {
	mu    sync.Mutex
	now   func() time.Time
	seq   int
	calls []string

	users    map[string]*models.User
	tokens   []*models.Token
	revoked  map[string]bool
	projects map[string]*models.Project
	tasks    map[string]*models.Task
	history  map[string][]models.StatusChange
	notes    map[string]*models.Note

	// failOn makes the named call return failErr, or errBoom when unset.
	failOn  string
	failErr error
}

func newStore() *store {
	return &store{
		now:      time.Now,
		users:    map[string]*models.User{},
		revoked:  map[string]bool{},
		projects: map[string]*models.Project{},
		tasks:    map[string]*models.Task{},
		history:  map[string][]models.StatusChange{},
		notes:    map[string]*models.Note{},
	}
}

func (s *store) snapshot() *store {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &store{
		users:    make(map[string]*models.User, len(s.users)),
		revoked:  make(map[string]bool, len(s.revoked)),
		projects: make(map[string]*models.Project, len(s.projects)),
		tasks:    make(map[string]*models.Task, len(s.tasks)),
		history:  make(map[string][]models.StatusChange, len(s.history)),
		notes:    make(map[string]*models.Note, len(s.notes)),
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for _, v := range s.tokens {
		tok := *v
		c.tokens = append(c.tokens, &tok)
	}
	for k, v := range s.revoked {
		c.revoked[k] = v
	}
	for k, v := range s.projects {
		p := *v
		p.Team = append([]string(nil), v.Team...)
		c.projects[k] = &p
	}
	for k, v := range s.tasks {
		task := *v
		c.tasks[k] = &task
	}
	for k, v := range s.history {
		c.history[k] = append([]models.StatusChange(nil), v...)
	}
	for k, v := range s.notes {
		n := *v
		c.notes[k] = &n
	}
	return c
}

func (s *store) restore(c *store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.tokens, s.revoked = c.users, c.tokens, c.revoked
	s.projects, s.tasks, s.history, s.notes = c.projects, c.tasks, c.history, c.notes
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *store) record(call string) error {
	s.calls = append(s.calls, call)
	if s.failOn != call {
		return nil
	}
	if s.failErr != nil {
		return s.failErr
	}
	return errBoom{}
}

func (s *store) mark(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *store) addUser(email, password string, confirmed bool) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{
		ID:           s.nextID("u"),
		Email:        email,
		Name:         strings.Split(email, "@")[0],
		PasswordHash: "hash:" + password,
		Confirmed:    confirmed,
	}
	s.users[u.ID] = u
	return u
}

func (s *store) userByEmail(email string) *models.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *store) tokensFor(userID string) []*models.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Token
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository           { return fakeUsers{m.s} }
func (m *fakeRepoManager) Tokens(dbx.DBTX) tokensrepo.Repository         { return fakeTokens{m.s} }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshrepo.Repository { return fakeRefresh{m.s} }
func (m *fakeRepoManager) Projects(dbx.DBTX) projectsrepo.Repository     { return fakeProjects{m.s} }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasksrepo.Repository           { return fakeTasks{m.s} }
func (m *fakeRepoManager) Notes(dbx.DBTX) notesrepo.Repository           { return fakeNotes{m.s} }
func (m *fakeRepoManager) RateLimits(dbx.DBTX) ratelimits.Repository     { return nil }

// --- users ---

type fakeUsers struct{ s *store }

func (f fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("users.Create"); err != nil {
		return nil, err
	}
	if f.s.userByEmail(u.Email) != nil {
		return nil, fmt.Errorf("db error: %w", uniqueViolation())
	}
	c := *u
	c.ID = f.s.nextID("u")
	f.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (f fakeUsers) get(call, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record(call); err != nil {
		return nil, err
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.get("users.GetByID", id)
}

func (f fakeUsers) LockByID(_ context.Context, id string) (*models.User, error) {
	return f.get("users.LockByID", id)
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("users.GetByEmail"); err != nil {
		return nil, err
	}
	u := f.s.userByEmail(email)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) update(call, id string, fn func(u *models.User)) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record(call); err != nil {
		return err
	}
	u, ok := f.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

func (f fakeUsers) Confirm(_ context.Context, id string) error {
	return f.update("users.Confirm", id, func(u *models.User) { u.Confirmed = true })
}

func (f fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return f.update("users.UpdatePassword", id, func(u *models.User) { u.PasswordHash = hash })
}

func (f fakeUsers) UpdateProfile(_ context.Context, id, name, email string) error {
	return f.update("users.UpdateProfile", id, func(u *models.User) { u.Name, u.Email = name, email })
}

func (f fakeUsers) EmailTakenByOther(_ context.Context, email, exceptID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("users.EmailTakenByOther"); err != nil {
		return false, err
	}
	u := f.s.userByEmail(email)
	return u != nil && u.ID != exceptID, nil
}

// --- tokens ---

type fakeTokens struct{ s *store }

func (f fakeTokens) Create(_ context.Context, t *models.Token) (*models.Token, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tokens.Create"); err != nil {
		return nil, err
	}
	c := *t
	c.ID = f.s.nextID("t")
	c.CreatedAt = f.s.now()
	f.s.tokens = append(f.s.tokens, &c)
	return &c, nil
}

func (f fakeTokens) FindActive(_ context.Context, value string, purpose models.TokenPurpose) (*models.Token, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tokens.FindActive"); err != nil {
		return nil, err
	}
	for _, t := range f.s.tokens {
		if t.Token == value && t.Purpose == purpose && t.ExpiresAt.After(f.s.now()) {
			c := *t
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeTokens) Consume(_ context.Context, value string, purpose models.TokenPurpose) (*models.Token, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tokens.Consume"); err != nil {
		return nil, err
	}
	for i, t := range f.s.tokens {
		if t.Token == value && t.Purpose == purpose && t.ExpiresAt.After(f.s.now()) {
			f.s.tokens = append(f.s.tokens[:i:i], f.s.tokens[i+1:]...)
			return t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeTokens) IssuedSince(_ context.Context, userID string, since time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tokens.IssuedSince"); err != nil {
		return false, err
	}
	for _, t := range f.s.tokens {
		if t.UserID == userID && t.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeTokens) remove(call string, keep func(t *models.Token) bool) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record(call); err != nil {
		return 0, err
	}
	var kept []*models.Token
	for _, t := range f.s.tokens {
		if keep(t) {
			kept = append(kept, t)
		}
	}
	n := int64(len(f.s.tokens) - len(kept))
	f.s.tokens = kept
	return n, nil
}

func (f fakeTokens) DeleteByID(_ context.Context, id string) error {
	n, err := f.remove("tokens.DeleteByID", func(t *models.Token) bool { return t.ID != id })
	if err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return err
}

func (f fakeTokens) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return f.remove("tokens.DeleteByUser", func(t *models.Token) bool { return t.UserID != userID })
}

func (f fakeTokens) DeleteByUserAndPurpose(_ context.Context, userID string, p models.TokenPurpose) (int64, error) {
	return f.remove("tokens.DeleteByUserAndPurpose", func(t *models.Token) bool {
		return t.UserID != userID || t.Purpose != p
	})
}

func (f fakeTokens) PurgeExpired(context.Context) (int64, error) {
	now := f.s.now()
	return f.remove("tokens.PurgeExpired", func(t *models.Token) bool { return t.ExpiresAt.After(now) })
}

// --- refresh revocation list ---

type fakeRefresh struct{ s *store }

func (f fakeRefresh) Revoke(_ context.Context, jti, _ string, _ time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("refresh.Revoke"); err != nil {
		return false, err
	}
	if f.s.revoked[jti] {
		return false, nil
	}
	f.s.revoked[jti] = true
	return true, nil
}

func (f fakeRefresh) PurgeExpired(context.Context) (int64, error) { return 0, nil }

// --- projects ---

type fakeProjects struct{ s *store }

func (f fakeProjects) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.Create"); err != nil {
		return nil, err
	}
	c := *p
	c.ID = f.s.nextID("p")
	c.Team = []string{}
	f.s.projects[c.ID] = &c
	out := c
	return &out, nil
}

func (f fakeProjects) GetByID(_ context.Context, id string) (*models.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.GetByID"); err != nil {
		return nil, err
	}
	p, ok := f.s.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	c.Team = append([]string{}, p.Team...)
	return &c, nil
}

func (f fakeProjects) ListForUser(_ context.Context, userID string) ([]models.Project, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.ListForUser"); err != nil {
		return nil, err
	}
	var out []models.Project
	for _, p := range f.s.projects {
		if p.ManagerID == userID || p.HasMember(userID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f fakeProjects) Update(_ context.Context, p *models.Project) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.Update"); err != nil {
		return err
	}
	cur, ok := f.s.projects[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.ProjectName, cur.ClientName, cur.Description = p.ProjectName, p.ClientName, p.Description
	return nil
}

func (f fakeProjects) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.Delete"); err != nil {
		return err
	}
	if _, ok := f.s.projects[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.projects, id)
	return nil
}

func (f fakeProjects) AddMember(_ context.Context, projectID, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.AddMember"); err != nil {
		return err
	}
	p := f.s.projects[projectID]
	if p.HasMember(userID) {
		return fmt.Errorf("db error: %w", uniqueViolation())
	}
	p.Team = append(p.Team, userID)
	return nil
}

func (f fakeProjects) RemoveMember(_ context.Context, projectID, userID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.RemoveMember"); err != nil {
		return false, err
	}
	p := f.s.projects[projectID]
	for i, id := range p.Team {
		if id == userID {
			p.Team = append(p.Team[:i], p.Team[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f fakeProjects) Members(_ context.Context, projectID string) ([]models.UserSummary, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.Members"); err != nil {
		return nil, err
	}
	var out []models.UserSummary
	for _, id := range f.s.projects[projectID].Team {
		out = append(out, f.s.users[id].Summary())
	}
	return out, nil
}

func (f fakeProjects) DeleteMembers(_ context.Context, projectID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("projects.DeleteMembers"); err != nil {
		return err
	}
	if p, ok := f.s.projects[projectID]; ok {
		p.Team = nil
	}
	return nil
}

// --- tasks ---

type fakeTasks struct{ s *store }

func (f fakeTasks) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.Create"); err != nil {
		return nil, err
	}
	c := *t
	c.ID = f.s.nextID("t")
	c.Status = models.TaskStatusPending
	f.s.tasks[c.ID] = &c
	out := c
	return &out, nil
}

func (f fakeTasks) GetByID(_ context.Context, id string) (*models.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.GetByID"); err != nil {
		return nil, err
	}
	t, ok := f.s.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (f fakeTasks) ListByProject(_ context.Context, projectID string) ([]models.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.ListByProject"); err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range f.s.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f fakeTasks) Update(_ context.Context, t *models.Task) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.Update"); err != nil {
		return err
	}
	cur, ok := f.s.tasks[t.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Name, cur.Description = t.Name, t.Description
	return nil
}

func (f fakeTasks) UpdateStatus(_ context.Context, id string, status models.TaskStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.UpdateStatus"); err != nil {
		return err
	}
	cur, ok := f.s.tasks[id]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Status = status
	return nil
}

func (f fakeTasks) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.Delete"); err != nil {
		return err
	}
	if _, ok := f.s.tasks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.tasks, id)
	return nil
}

func (f fakeTasks) DeleteByProject(_ context.Context, projectID string) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.DeleteByProject"); err != nil {
		return 0, err
	}
	var n int64
	for id, t := range f.s.tasks {
		if t.ProjectID == projectID {
			delete(f.s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (f fakeTasks) AddStatusChange(_ context.Context, taskID, userID string, status models.TaskStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.AddStatusChange"); err != nil {
		return err
	}
	f.s.history[taskID] = append(f.s.history[taskID], models.StatusChange{
		User:      f.s.users[userID].Summary(),
		Status:    status,
		ChangedAt: f.s.now(),
	})
	return nil
}

func (f fakeTasks) History(_ context.Context, taskID string) ([]models.StatusChange, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.History"); err != nil {
		return nil, err
	}
	return append([]models.StatusChange(nil), f.s.history[taskID]...), nil
}

func (f fakeTasks) DeleteHistoryByTask(_ context.Context, taskID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.DeleteHistoryByTask"); err != nil {
		return err
	}
	delete(f.s.history, taskID)
	return nil
}

func (f fakeTasks) DeleteHistoryByProject(_ context.Context, projectID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("tasks.DeleteHistoryByProject"); err != nil {
		return err
	}
	for id, t := range f.s.tasks {
		if t.ProjectID == projectID {
			delete(f.s.history, id)
		}
	}
	return nil
}

// --- notes ---

type fakeNotes struct{ s *store }

func (f fakeNotes) Create(_ context.Context, n *models.Note) (*models.Note, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("notes.Create"); err != nil {
		return nil, err
	}
	c := *n
	c.ID = f.s.nextID("n")
	c.CreatedAt = f.s.now()
	f.s.notes[c.ID] = &c
	return &c, nil
}

func (f fakeNotes) GetByID(_ context.Context, id string) (*models.Note, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("notes.GetByID"); err != nil {
		return nil, err
	}
	n, ok := f.s.notes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *n
	if u, ok := f.s.users[c.CreatedBy.ID]; ok {
		c.CreatedBy = u.Summary()
	}
	return &c, nil
}

func (f fakeNotes) ListByTask(_ context.Context, taskID string) ([]models.Note, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("notes.ListByTask"); err != nil {
		return nil, err
	}
	var out []models.Note
	for _, n := range f.s.notes {
		if n.TaskID == taskID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f fakeNotes) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("notes.Delete"); err != nil {
		return err
	}
	if _, ok := f.s.notes[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.s.notes, id)
	return nil
}

func (f fakeNotes) DeleteByTask(_ context.Context, taskID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("notes.DeleteByTask"); err != nil {
		return err
	}
	for id, n := range f.s.notes {
		if n.TaskID == taskID {
			delete(f.s.notes, id)
		}
	}
	return nil
}

func (f fakeNotes) DeleteByProject(_ context.Context, projectID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.record("notes.DeleteByProject"); err != nil {
		return err
	}
	for id, n := range f.s.notes {
		if t, ok := f.s.tasks[n.TaskID]; ok && t.ProjectID == projectID {
			delete(f.s.notes, id)
		}
	}
	return nil
}

// --- collaborators ---

type fakeHasher struct{ fail bool }

func (h fakeHasher) Hash(pw string) (string, error) {
	if h.fail {
		return "", errBoom{}
	}
	return "hash:" + pw, nil
}

func (h fakeHasher) Compare(hash, pw string) (bool, error) {
	return hash == "hash:"+pw, nil
}

type sentMail struct {
	Kind  mail.Kind
	To    mail.Recipient
	Async bool
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, kind mail.Kind, r mail.Recipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{Kind: kind, To: r})
	return nil
}

func (m *fakeMailer) SendAsync(_ context.Context, kind mail.Kind, r mail.Recipient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Kind: kind, To: r, Async: true})
}

func (m *fakeMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

func foreignKeyViolation() error {
	return fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23503"})
}
