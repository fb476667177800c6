package editor

import "math"

const (
	MinZoom     = 50.0
	MaxZoom     = 200.0
	DefaultZoom = 100.0

	DefaultViewport = 300.0
	OutputSize      = 720
	JPEGQuality     = 85
)

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ClampZoom 把缩放百分比限制在 [MinZoom, MaxZoom]
func ClampZoom(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultZoom
	}
	return clamp(v, MinZoom, MaxZoom)
}

// CoverScale 使图片完整覆盖正方形视口的最小缩放
func CoverScale(viewport, naturalWidth, naturalHeight float64) float64 {
	return math.Max(viewport/naturalWidth, viewport/naturalHeight)
}

// maxOffset 单轴允许的最大偏移，图片不大于视口时锁定为 0
func maxOffset(display, viewport float64) float64 {
	return math.Max(0, (display-viewport)/2)
}

// Rect 视口坐标系下的矩形
type Rect struct {
	X, Y, W, H float64
}

// Covers 判断矩形是否完整覆盖 [0,v]x[0,v]
func (r Rect) Covers(viewport float64) bool {
	const eps = 1e-9
	return r.X <= eps && r.Y <= eps &&
		r.X+r.W >= viewport-eps && r.Y+r.H >= viewport-eps
}

// State 编辑器当前的只读快照
type State struct {
	Phase         Phase   `json:"phase"`
	Name          string  `json:"name,omitempty"`
	Zoom          float64 `json:"zoom"`
	OffsetX       float64 `json:"offsetX"`
	OffsetY       float64 `json:"offsetY"`
	NaturalWidth  float64 `json:"naturalWidth"`
	NaturalHeight float64 `json:"naturalHeight"`
	Viewport      float64 `json:"viewport"`
	Display       Rect    `json:"display"`
}

// transform 纯几何状态，所有更新都经过 clampOffsets
type transform struct {
	viewport float64
	nw, nh   float64
	zoom     float64
	ox, oy   float64
}

func (t *transform) scale() float64 {
	return CoverScale(t.viewport, t.nw, t.nh) * t.zoom / 100
}

func (t *transform) displaySize() (float64, float64) {
	s := t.scale()
	return t.nw * s, t.nh * s
}

// display 图片在视口中的位置，偏移量是图片中心相对视口中心的平移
func (t *transform) display() Rect {
	w, h := t.displaySize()
	return Rect{
		X: (t.viewport-w)/2 + t.ox,
		Y: (t.viewport-h)/2 + t.oy,
		W: w,
		H: h,
	}
}

func (t *transform) clampOffsets() {
	w, h := t.displaySize()
	mx, my := maxOffset(w, t.viewport), maxOffset(h, t.viewport)
	t.ox = clamp(t.ox, -mx, mx)
	t.oy = clamp(t.oy, -my, my)
}

func (t *transform) setZoom(v float64) {
	t.zoom = ClampZoom(v)
	t.clampOffsets()
}

func (t *transform) pan(dx, dy float64) {
	t.ox += dx
	t.oy += dy
	t.clampOffsets()
}

// zoomAt 以视口内 (px, py) 为锚点缩放，锚点下的图片像素保持不动
func (t *transform) zoomAt(delta, px, py float64) {
	before := t.scale()
	t.zoom = ClampZoom(t.zoom + delta)
	ratio := t.scale() / before

	cx, cy := px-t.viewport/2, py-t.viewport/2
	t.ox = cx - (cx-t.ox)*ratio
	t.oy = cy - (cy-t.oy)*ratio
	t.clampOffsets()
}

func (t *transform) reset() {
	t.zoom = DefaultZoom
	t.ox, t.oy = 0, 0
	t.clampOffsets()
}

// sourceRect 视口可见区域对应的原图矩形 (原图像素坐标，已与原图边界求交)
// 以及该区域在视口中的位置
func (t *transform) sourceRect() (src Rect, dst Rect) {
	d := t.display()
	s := t.scale()

	x0 := math.Max(0, -d.X/s)
	y0 := math.Max(0, -d.Y/s)
	x1 := math.Min(t.nw, (t.viewport-d.X)/s)
	y1 := math.Min(t.nh, (t.viewport-d.Y)/s)

	src = Rect{X: x0, Y: y0, W: math.Max(0, x1-x0), H: math.Max(0, y1-y0)}
	dst = Rect{X: d.X + x0*s, Y: d.Y + y0*s, W: src.W * s, H: src.H * s}
	return src, dst
}
