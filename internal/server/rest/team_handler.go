package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) findMember(c *gin.Context) {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}

	u, err := s.team.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TEAM_MEMBER_FOUND", u)
}

func (s *Server) listMembers(c *gin.Context) {
	list, err := s.team.Members(c.Request.Context(), scopeOf(c).Project.ID)
	if err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TEAM_FETCHED", list)
}

func (s *Server) addMember(c *gin.Context) {
	var req memberRequest
	if err := bind(c, &req); err != nil {
		s.abort(c, err)
		return
	}
	if err := s.team.Add(c.Request.Context(), scopeOf(c).Project, req.ID); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TEAM_MEMBER_ADDED", nil)
}

func (s *Server) removeMember(c *gin.Context) {
	userID, ok := s.pathID(c, "userId")
	if !ok {
		return
	}
	if err := s.team.Remove(c.Request.Context(), scopeOf(c).Project, userID); err != nil {
		s.abort(c, err)
		return
	}
	respond(c, http.StatusOK, "TEAM_MEMBER_REMOVED", nil)
}
