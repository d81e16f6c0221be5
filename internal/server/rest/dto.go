package rest

import (
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/server/models"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type signinResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    userView `json:"user"`
}

type dashboardUser struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Joined time.Time `json:"joined"`
}

type dashboardResponse struct {
	Message string        `json:"message"`
	User    dashboardUser `json:"user"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func newUserView(p *models.Profile) userView {
	return userView{ID: p.ID, Name: p.Name, Email: p.Email}
}
