package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"lintas.id/aidesk/internal/modules/search/service"
	userRepo "lintas.id/aidesk/internal/modules/user/repository"
	"lintas.id/aidesk/pkg/apperror"
	"lintas.id/aidesk/pkg/response"
)

type SearchHandler struct {
	service service.SearchService
	users   userRepo.UserRepository
}

func NewSearchHandler(service service.SearchService, users userRepo.UserRepository) *SearchHandler {
	return &SearchHandler{service: service, users: users}
}

// GetSearchToken returns a short lived tenant token the frontend uses to
// query Meilisearch directly. The token embeds the caller's filter rules.
func (h *SearchHandler) GetSearchToken(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, apperror.ErrUnauthorized)
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID.String())
	if err != nil {
		response.ResponseError(c, apperror.ErrUnauthorized)
		return
	}

	token, err := h.service.GenerateSearchToken(userID, user.IsAdmin())
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusServiceUnavailable, "search is not available", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
