package rest

import (
	"net/http"

	"github.com/dmitrijs2005/uptask/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (r *projectRequest) input() services.ProjectInput {
	return services.ProjectInput{ProjectName: r.ProjectName, ClientName: r.ClientName, Description: r.Description}
}

func (s *Server) listProjects(c *gin.Context) {
	list, err := s.projects.List(c.Request.Context(), scopeOf(c).User.ID)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "PROJECTS_FETCHED", list)
}

func (s *Server) createProject(c *gin.Context) {
	var req projectRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	p, err := s.projects.Create(c.Request.Context(), scopeOf(c).User.ID, req.input())
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusCreated, "PROJECT_CREATED", p)
}

func (s *Server) getProject(c *gin.Context) {
	detail, err := s.projects.Detail(c.Request.Context(), scopeOf(c).Project)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "PROJECT_FETCHED", detail)
}

func (s *Server) updateProject(c *gin.Context) {
	var req projectRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	p, err := s.projects.Update(c.Request.Context(), scopeOf(c).Project, req.input())
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "PROJECT_UPDATED", p)
}

func (s *Server) deleteProject(c *gin.Context) {
	if err := s.projects.Delete(c.Request.Context(), scopeOf(c).Project.ID); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "PROJECT_DELETED", nil)
}
