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

// NoteService manages the notes attached to tasks.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *NoteService {
	return &NoteService{db: db, repomanager: m, log: log}
}

// Load fetches a note with its author summary.
func (s *NoteService) Load(ctx context.Context, id string) (*models.Note, error) {
	n, err := s.repomanager.Notes(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, internalError(ctx, s.log, "load note", notFoundAs(err, common.ErrNoteNotFound))
	}
	return n, nil
}

// Create adds a note to the task and returns it with the author resolved. A
// task removed in the meantime yields ErrTaskNotFound.
func (s *NoteService) Create(ctx context.Context, taskID, authorID, content string) (*models.Note, error) {
	n, err := s.repomanager.Notes(s.db).Create(ctx, &models.Note{
		TaskID:    taskID,
		Content:   content,
		CreatedBy: models.UserSummary{ID: authorID},
	})
	if dbx.IsForeignKeyViolation(err) {
		return nil, common.ErrTaskNotFound
	}
	if err != nil {
		return nil, internalError(ctx, s.log, "create note", err)
	}
	return s.Load(ctx, n.ID)
}

func (s *NoteService) List(ctx context.Context, taskID string) ([]models.Note, error) {
	list, err := s.repomanager.Notes(s.db).ListByTask(ctx, taskID)
	if err != nil {
		return nil, internalError(ctx, s.log, "list notes", err)
	}
	if list == nil {
		list = []models.Note{}
	}
	return list, nil
}

func (s *NoteService) Delete(ctx context.Context, noteID string) error {
	if err := s.repomanager.Notes(s.db).Delete(ctx, noteID); err != nil {
		return internalError(ctx, s.log, "delete note", notFoundAs(err, common.ErrNoteNotFound))
	}
	return nil
}
