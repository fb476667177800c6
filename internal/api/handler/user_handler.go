package handler

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/api/middleware"
	"Pibno/internal/pkg/consts"
	"Pibno/internal/pkg/response"
	"Pibno/internal/pkg/util"
	"Pibno/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{
		userSvc: userSvc,
	}
}

func (s *UserHandler) Register(c *gin.Context) {
	var registerDTO dto.RegisterDTO
	err := c.ShouldBind(&registerDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err = util.ValidateDTO(&registerDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	user, err := s.userSvc.Register(c.Request.Context(), &registerDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (s *UserHandler) Login(c *gin.Context) {
	var loginDTO dto.CredentialDTO
	err := c.ShouldBind(&loginDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err = util.ValidateDTO(&loginDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	session, err := s.userSvc.Login(c.Request.Context(), &loginDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, session)
}

func (s *UserHandler) Logout(c *gin.Context) {
	err := s.userSvc.Logout(c.Request.Context(), c.GetString(consts.CtxToken))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) Me(c *gin.Context) {
	user, err := s.userSvc.Me(c.Request.Context(), c.GetString(consts.CtxUserID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"user":         user,
		"capabilities": service.Capabilities(middleware.Caller(c).Role),
	})
}

func (s *UserHandler) UpdateProfile(c *gin.Context) {
	var profileDTO dto.ProfileDTO
	err := c.ShouldBindJSON(&profileDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err = util.ValidateDTO(&profileDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	user, err := s.userSvc.UpdateProfile(c.Request.Context(), c.GetString(consts.CtxUserID), &profileDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UploadAvatar multipart: file 必填，zoom / offset_x / offset_y / viewport 可选
func (s *UserHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil || file == nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}
	var crop dto.AvatarCropDTO
	if err = c.ShouldBind(&crop); err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}
	if err = util.ValidateDTO(&crop); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	url, err := s.userSvc.UploadAvatar(c.Request.Context(), c.GetString(consts.CtxUserID), reader, file.Size, file.Filename, &crop)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"avatarUrl": url})
}

func (s *UserHandler) GetUser(c *gin.Context) {
	user, err := s.userSvc.GetUserInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (s *UserHandler) GetUserByUsername(c *gin.Context) {
	user, err := s.userSvc.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

func (s *UserHandler) GetUserPage(c *gin.Context) {
	page, err := s.userSvc.GetUserPage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}
