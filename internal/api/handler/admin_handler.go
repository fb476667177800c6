package handler

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/api/middleware"
	"Pibno/internal/pkg/response"
	"Pibno/internal/pkg/util"
	"Pibno/internal/service"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

type AdminHandler struct {
	adminSvc       service.AdminService
	postSvc        service.PostService
	importMaxBytes int64
}

func NewAdminHandler(adminSvc service.AdminService, postSvc service.PostService, importMaxBytes int64) *AdminHandler {
	return &AdminHandler{
		adminSvc:       adminSvc,
		postSvc:        postSvc,
		importMaxBytes: importMaxBytes,
	}
}

// State GET /admin/posts, /admin/users?tab=
func (s *AdminHandler) State(c *gin.Context) {
	ctrl, err := s.adminSvc.Open(c.Request.Context(), middleware.Caller(c), c.Query("tab"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ctrl.State())
}

// dispatch 执行一个动作，返回结果与刷新后的状态
func (s *AdminHandler) dispatch(c *gin.Context, action service.Action) {
	ctrl, err := s.adminSvc.Controller(middleware.Caller(c), c.Query("tab"))
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := ctrl.Dispatch(c.Request.Context(), action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"outcome": out,
		"state":   ctrl.State(),
	})
}

func (s *AdminHandler) CreatePost(c *gin.Context) {
	var postDTO dto.CreatePostDTO
	if err := c.ShouldBindJSON(&postDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&postDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	var action service.CreatePost
	if err := copier.Copy(&action, &postDTO); err != nil {
		response.Error(c, err)
		return
	}
	s.dispatch(c, action)
}

func (s *AdminHandler) UpdatePost(c *gin.Context) {
	var postDTO dto.UpdatePostDTO
	if err := c.ShouldBindJSON(&postDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&postDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	action := service.UpdatePost{ID: c.Param("id")}
	if err := copier.Copy(&action, &postDTO); err != nil {
		response.Error(c, err)
		return
	}
	action.ID = c.Param("id")
	s.dispatch(c, action)
}

func (s *AdminHandler) DeletePost(c *gin.Context) {
	s.dispatch(c, service.DeletePost{ID: c.Param("id")})
}

// UploadMedia multipart file 字段，返回可直接填入帖子的地址
func (s *AdminHandler) UploadMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil || file == nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
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

	out, err := s.postSvc.UploadMedia(c.Request.Context(), middleware.Caller(c), reader, file.Size, file.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

func (s *AdminHandler) CreateUser(c *gin.Context) {
	var userDTO dto.CreateUserDTO
	if err := c.ShouldBindJSON(&userDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&userDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	var action service.CreateUser
	if err := copier.Copy(&action, &userDTO); err != nil {
		response.Error(c, err)
		return
	}
	s.dispatch(c, action)
}

func (s *AdminHandler) ApproveUser(c *gin.Context) {
	var approveDTO dto.ApproveDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&approveDTO); err != nil {
			response.Error(c, err)
			return
		}
	}
	s.dispatch(c, service.ApproveUser{ID: c.Param("id"), Role: approveDTO.Role})
}

func (s *AdminHandler) RejectUser(c *gin.Context) {
	s.dispatch(c, service.RejectUser{ID: c.Param("id")})
}

func (s *AdminHandler) DeleteUser(c *gin.Context) {
	s.dispatch(c, service.DeleteUser{ID: c.Param("id")})
}

func (s *AdminHandler) ChangePassword(c *gin.Context) {
	var pwdDTO dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&pwdDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&pwdDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	s.dispatch(c, service.ChangePassword{Password: pwdDTO.NewPassword, Confirm: pwdDTO.ConfirmPassword})
}

// Export 以附件形式下载 pibno_posts_YYYY-MM-DD.json
func (s *AdminHandler) Export(c *gin.Context) {
	data, name, err := s.adminSvc.Export(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Import 接受 multipart file 字段或直接的 JSON 请求体
func (s *AdminHandler) Import(c *gin.Context) {
	var src io.Reader = c.Request.Body
	if file, err := c.FormFile("file"); err == nil && file != nil {
		reader, err := file.Open()
		if err != nil {
			response.Error(c, err)
			return
		}
		defer func() {
			_ = reader.Close()
		}()
		src = reader
	}
	if s.importMaxBytes > 0 {
		src = io.LimitReader(src, s.importMaxBytes+1)
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if s.importMaxBytes > 0 && int64(len(raw)) > s.importMaxBytes {
		response.Error(c, service.ErrFileTooLarge)
		return
	}
	s.dispatch(c, service.ImportPosts{Raw: raw})
}

// Action POST /admin/actions {kind, payload}
func (s *AdminHandler) Action(c *gin.Context) {
	var actionDTO dto.ActionDTO
	if err := c.ShouldBindJSON(&actionDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&actionDTO); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}
	payload := []byte(actionDTO.Payload)
	if len(payload) == 0 || string(payload) == "null" {
		payload = nil
	}
	if service.ActionKind(actionDTO.Kind) == service.ActionImportPosts && !json.Valid(payload) {
		response.Error(c, service.ErrImportInvalid)
		return
	}
	action, err := service.DecodeAction(service.ActionKind(actionDTO.Kind), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	s.dispatch(c, action)
}
