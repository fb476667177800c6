package handler

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/pkg/response"
	"Pibno/internal/pkg/util"
	"Pibno/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postSvc service.PostService
}

func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{
		postSvc: postSvc,
	}
}

// Feed GET /feed?limit=&cursor=
func (s *PostHandler) Feed(c *gin.Context) {
	var query dto.FeedQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	page, err := s.postSvc.Feed(c.Request.Context(), &query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *PostHandler) Home(c *gin.Context) {
	home, err := s.postSvc.Home(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, home)
}

func (s *PostHandler) GetPost(c *gin.Context) {
	post, err := s.postSvc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}
