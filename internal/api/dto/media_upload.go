package dto

// MediaUploadDTO 上传完成后返回的对象地址
type MediaUploadDTO struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
