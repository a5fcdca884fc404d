// Package httpapi exposes the proposal registry as a JSON/HTTP API on gin.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophvote/internal/server/models"
	"github.com/dmitrijs2005/gophvote/internal/server/services"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type ProposalService interface {
	List(ctx context.Context) ([]*models.Proposal, error)
	Get(ctx context.Context, id string) (*models.Proposal, error)
	Create(ctx context.Context, caller, title, description string) (*models.Proposal, error)
	VoteYes(ctx context.Context, caller, id string) (*models.Proposal, error)
	VoteNo(ctx context.Context, caller, id string) (*models.Proposal, error)
	Update(ctx context.Context, caller, id, title, description string) (*models.Proposal, error)
	Delete(ctx context.Context, caller, id string) (*models.Proposal, error)
}

type ArchiveService interface {
	Export(ctx context.Context, caller string) (*services.Export, error)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type proposalBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type handlers struct {
	users     UserService
	proposals ProposalService
	archive   ArchiveService
	errors    *errorWriter
}

func (h *handlers) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.badRequest(c, err)
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": u.ID, "username": u.UserName})
}

func (h *handlers) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.badRequest(c, err)
		return
	}
	token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func (h *handlers) list(c *gin.Context) {
	list, err := h.proposals.List(c.Request.Context())
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": list})
}

func (h *handlers) get(c *gin.Context) {
	p, err := h.proposals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) create(c *gin.Context) {
	var req proposalBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.badRequest(c, err)
		return
	}
	p, err := h.proposals.Create(c.Request.Context(), caller(c), req.Title, req.Description)
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) voteYes(c *gin.Context) { h.vote(c, h.proposals.VoteYes) }

func (h *handlers) voteNo(c *gin.Context) { h.vote(c, h.proposals.VoteNo) }

func (h *handlers) vote(c *gin.Context, cast func(context.Context, string, string) (*models.Proposal, error)) {
	p, err := cast(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) update(c *gin.Context) {
	var req proposalBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.badRequest(c, err)
		return
	}
	p, err := h.proposals.Update(c.Request.Context(), caller(c), c.Param("id"), req.Title, req.Description)
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) delete(c *gin.Context) {
	p, err := h.proposals.Delete(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) export(c *gin.Context) {
	exp, err := h.archive.Export(c.Request.Context(), caller(c))
	if err != nil {
		h.errors.write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": exp.Key, "url": exp.URL, "count": exp.Count})
}
