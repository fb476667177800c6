// Package editor implements the square avatar cropper: cover-fit, zoom, pan,
// pointer-anchored zoom and rasterisation of the visible area into a fixed
// size JPEG.
package editor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"path"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseEditing Phase = "editing"
)

var (
	ErrNotEditing  = errors.New("no image is being edited")
	ErrDecode      = errors.New("unable to decode image")
	ErrEmptyImage  = errors.New("image has no pixels")
	ErrBadViewport = errors.New("viewport must be positive")
	ErrNonFinite   = errors.New("pan and zoom values must be finite")
)

// Output 裁剪结果
type Output struct {
	Name        string
	ContentType string
	Data        []byte
	DataURL     string
}

type Editor struct {
	mu     sync.Mutex
	phase  Phase
	name   string
	source image.Image
	t      transform
}

// New 创建编辑器，viewport 为正方形视口边长 (像素)
func New(viewport float64) (*Editor, error) {
	if viewport <= 0 || math.IsNaN(viewport) || math.IsInf(viewport, 0) {
		return nil, ErrBadViewport
	}
	return &Editor{
		phase: PhaseIdle,
		t:     transform{viewport: viewport, zoom: DefaultZoom},
	}, nil
}

// Open 解码图片并进入编辑状态，失败时保留原有状态
func (s *Editor) Open(r io.Reader, name string) error {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return errors.Wrap(ErrDecode, err.Error())
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return ErrEmptyImage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = img
	s.name = name
	s.phase = PhaseEditing
	s.t = transform{
		viewport: s.t.viewport,
		nw:       float64(b.Dx()),
		nh:       float64(b.Dy()),
	}
	s.t.reset()
	return nil
}

func (s *Editor) editing(fn func(t *transform)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return ErrNotEditing
	}
	fn(&s.t)
	return nil
}

func (s *Editor) SetZoom(v float64) error {
	return s.editing(func(t *transform) { t.setZoom(v) })
}

func (s *Editor) Pan(dx, dy float64) error {
	if !finite(dx, dy) {
		return ErrNonFinite
	}
	return s.editing(func(t *transform) { t.pan(dx, dy) })
}

// ZoomAtPoint 滚轮缩放，(px, py) 为指针在视口中的坐标
func (s *Editor) ZoomAtPoint(delta, px, py float64) error {
	if !finite(delta, px, py) {
		return ErrNonFinite
	}
	return s.editing(func(t *transform) { t.zoomAt(delta, px, py) })
}

func (s *Editor) Reset() error {
	return s.editing(func(t *transform) { t.reset() })
}

// Cancel 放弃编辑回到 idle
func (s *Editor) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Editor) clear() {
	s.phase = PhaseIdle
	s.source = nil
	s.name = ""
	s.t = transform{viewport: s.t.viewport, zoom: DefaultZoom}
}

func (s *Editor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Phase:         s.phase,
		Name:          s.name,
		Zoom:          s.t.zoom,
		OffsetX:       s.t.ox,
		OffsetY:       s.t.oy,
		NaturalWidth:  s.t.nw,
		NaturalHeight: s.t.nh,
		Viewport:      s.t.viewport,
	}
	if s.phase == PhaseEditing {
		st.Display = s.t.display()
	}
	return st
}

// Confirm 把视口可见区域渲染为 OutputSize 见方的 JPEG，成功后回到 idle
func (s *Editor) Confirm() (out *Output, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseEditing {
		return nil, ErrNotEditing
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("render failed: %v", r)
		}
	}()

	data, err := render(s.source, &s.t)
	if err != nil {
		return nil, err
	}

	out = &Output{
		Name:        outputName(s.name),
		ContentType: "image/jpeg",
		Data:        data,
		DataURL:     "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
	}
	s.clear()
	return out, nil
}

func render(src image.Image, t *transform) ([]byte, error) {
	canvas := imaging.New(OutputSize, OutputSize, color.White)

	srcRect, dstRect := t.sourceRect()
	k := float64(OutputSize) / t.viewport

	b := src.Bounds()
	crop := image.Rect(
		b.Min.X+int(math.Floor(srcRect.X)),
		b.Min.Y+int(math.Floor(srcRect.Y)),
		b.Min.X+int(math.Ceil(srcRect.X+srcRect.W)),
		b.Min.Y+int(math.Ceil(srcRect.Y+srcRect.H)),
	).Intersect(b)

	dw := int(math.Round(dstRect.W * k))
	dh := int(math.Round(dstRect.H * k))
	if !crop.Empty() && dw > 0 && dh > 0 {
		part := imaging.Resize(imaging.Crop(src, crop), dw, dh, imaging.Lanczos)
		at := image.Pt(int(math.Round(dstRect.X*k)), int(math.Round(dstRect.Y*k)))
		canvas = imaging.Paste(canvas, part, at)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

func outputName(name string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	if base == "" || base == "." || base == "/" {
		base = "avatar"
	}
	return base + ".jpg"
}
