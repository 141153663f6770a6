package models

import "time"

type Project struct {
	ID          string    `json:"_id"`
	ProjectName string    `json:"projectName"`
	ClientName  string    `json:"clientName"`
	Description string    `json:"description"`
	ManagerID   string    `json:"manager"`
	Team        []string  `json:"team"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasMember reports whether userID belongs to the project's team.
func (p *Project) HasMember(userID string) bool {
	for _, id := range p.Team {
		if id == userID {
			return true
		}
	}
	return false
}

// ProjectDetail is a project with its tasks, as returned by GET /projects/:id.
type ProjectDetail struct {
	Project
	Tasks []Task `json:"tasks"`
}
