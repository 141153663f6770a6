package rest

import (
	"net/http"

	"github.com/dmitrijs2005/uptask/internal/server/access"
	"github.com/dmitrijs2005/uptask/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) listTasks(c *gin.Context) {
	list, err := s.tasks.List(c.Request.Context(), scopeOf(c).Project.ID)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TASKS_FETCHED", list)
}

func (s *Server) createTask(c *gin.Context) {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	t, err := s.tasks.Create(c.Request.Context(), scopeOf(c).Project.ID, services.TaskInput{Name: req.Name, Description: req.Description})
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusCreated, "TASK_CREATED", t)
}

func (s *Server) getTask(c *gin.Context) {
	t, err := s.tasks.Detail(c.Request.Context(), scopeOf(c).Task)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TASK_FETCHED", t)
}

func (s *Server) updateTask(c *gin.Context) {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	t, err := s.tasks.Update(c.Request.Context(), scopeOf(c).Task, services.TaskInput{Name: req.Name, Description: req.Description})
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TASK_UPDATED", t)
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.tasks.Delete(c.Request.Context(), scopeOf(c).Task.ID); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TASK_DELETED", nil)
}

// updateTaskStatus is open to every project reader.
func (s *Server) updateTaskStatus(c *gin.Context) {
	var req statusRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	sc := scopeOf(c)
	t, err := s.tasks.UpdateStatus(c.Request.Context(), sc.Task, sc.User.ID, req.Status)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TASK_STATUS_UPDATED", t)
}

func (s *Server) listNotes(c *gin.Context) {
	list, err := s.notes.List(c.Request.Context(), scopeOf(c).Task.ID)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "NOTES_FETCHED", list)
}

func (s *Server) createNote(c *gin.Context) {
	var req noteRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	sc := scopeOf(c)
	n, err := s.notes.Create(c.Request.Context(), sc.Task.ID, sc.User.ID, req.Content)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusCreated, "NOTE_CREATED", n)
}

func (s *Server) deleteNote(c *gin.Context) {
	sc := scopeOf(c)
	if err := access.RequireNoteAuthor(sc.Note, sc.User.ID); err != nil {
		s.abort(c, err)
		return
	}
	if err := s.notes.Delete(c.Request.Context(), sc.Note.ID); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "NOTE_DELETED", nil)
}
