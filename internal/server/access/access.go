// Package access holds the authorization rules for projects, tasks and notes.
//
// The project manager may read and mutate the project and everything in it.
// Team members may read the project, change task status and write notes.
// Notes may only be deleted by their author.
package access

import (
	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/server/models"
)

// IsManager reports whether userID manages p.
func IsManager(p *models.Project, userID string) bool {
	return userID != "" && p.ManagerID == userID
}

// CanRead reports whether userID manages p or belongs to its team.
func CanRead(p *models.Project, userID string) bool {
	return IsManager(p, userID) || p.HasMember(userID)
}

// RequireManager fails with ErrActionNotAllowed unless userID manages p.
func RequireManager(p *models.Project, userID string) error {
	if !IsManager(p, userID) {
		return common.ErrActionNotAllowed
	}
	return nil
}

// RequireReader fails with ErrActionNotAllowed unless userID manages p or
// belongs to its team.
func RequireReader(p *models.Project, userID string) error {
	if !CanRead(p, userID) {
		return common.ErrActionNotAllowed
	}
	return nil
}

// TaskInProject fails with ErrTaskNotInProject when t belongs to another project.
func TaskInProject(t *models.Task, p *models.Project) error {
	if t.ProjectID != p.ID {
		return common.ErrTaskNotInProject
	}
	return nil
}

// NoteInTask fails with ErrNoteNotFound when n belongs to another task.
func NoteInTask(n *models.Note, t *models.Task) error {
	if n.TaskID != t.ID {
		return common.ErrNoteNotFound
	}
	return nil
}

// RequireNoteAuthor fails with ErrNoteNotOwned unless userID wrote n.
func RequireNoteAuthor(n *models.Note, userID string) error {
	if n.CreatedBy.ID != userID {
		return common.ErrNoteNotOwned
	}
	return nil
}
