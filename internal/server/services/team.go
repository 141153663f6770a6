package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/dbx"
	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/dmitrijs2005/uptask/internal/server/models"
	"github.com/dmitrijs2005/uptask/internal/server/repositories/repomanager"
)

// TeamService manages project team membership.
type TeamService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewTeamService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *TeamService {
	return &TeamService{db: db, repomanager: m, log: log}
}

// FindByEmail looks up a prospective member.
func (s *TeamService) FindByEmail(ctx context.Context, email string) (*models.UserSummary, error) {
	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return nil, internalError(ctx, s.log, "find member", notFoundAs(err, common.ErrMemberNotFound))
	}
	summary := u.Summary()
	return &summary, nil
}

// Members lists the team of projectID.
func (s *TeamService) Members(ctx context.Context, projectID string) ([]models.UserSummary, error) {
	list, err := s.repomanager.Projects(s.db).Members(ctx, projectID)
	if err != nil {
		return nil, internalError(ctx, s.log, "list members", err)
	}
	if list == nil {
		list = []models.UserSummary{}
	}
	return list, nil
}

// Add puts userID on p's team. The manager cannot be added, nor can an
// existing member.
func (s *TeamService) Add(ctx context.Context, p *models.Project, userID string) error {
	if userID == p.ManagerID {
		return common.ErrManagerCannotJoinTeam
	}
	if p.HasMember(userID) {
		return common.ErrMemberAlreadyExists
	}
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return internalError(ctx, s.log, "add member", notFoundAs(err, common.ErrMemberNotFound))
	}

	if err := s.repomanager.Projects(s.db).AddMember(ctx, p.ID, userID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrMemberAlreadyExists
		}
		return internalError(ctx, s.log, "add member", err)
	}
	s.log.Info(ctx, "team member added", "project_id", p.ID, "user_id", userID)
	return nil
}

func (s *TeamService) Remove(ctx context.Context, p *models.Project, userID string) error {
	removed, err := s.repomanager.Projects(s.db).RemoveMember(ctx, p.ID, userID)
	if err != nil {
		return internalError(ctx, s.log, "remove member", err)
	}
	if !removed {
		return common.ErrMemberNotInProject
	}
	s.log.Info(ctx, "team member removed", "project_id", p.ID, "user_id", userID)
	return nil
}
