package editor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoTone 左半红右半蓝
func twoTone(t *testing.T, w, h int) *bytes.Reader {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 220, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 220, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return bytes.NewReader(buf.Bytes())
}

func openEditor(t *testing.T, w, h int) *Editor {
	t.Helper()
	e, err := New(DefaultViewport)
	require.NoError(t, err)
	require.NoError(t, e.Open(twoTone(t, w, h), "photo.png"))
	return e
}

func TestCoverScale(t *testing.T) {
	assert.InDelta(t, 0.75, CoverScale(300, 600, 400), 1e-9)
	assert.InDelta(t, 3.0, CoverScale(300, 100, 50)/2, 1e-9)
}

func TestOpenStartsCentredAtDefaultZoom(t *testing.T) {
	e := openEditor(t, 600, 400)
	st := e.State()

	assert.Equal(t, PhaseEditing, st.Phase)
	assert.Equal(t, DefaultZoom, st.Zoom)
	assert.Equal(t, 600.0, st.NaturalWidth)
	assert.Equal(t, 400.0, st.NaturalHeight)
	assert.InDelta(t, 450, st.Display.W, 1e-9)
	assert.InDelta(t, 300, st.Display.H, 1e-9)
	assert.InDelta(t, -75, st.Display.X, 1e-9)
	assert.True(t, st.Display.Covers(DefaultViewport))
}

func TestSetZoomClamps(t *testing.T) {
	e := openEditor(t, 600, 400)

	require.NoError(t, e.SetZoom(500))
	assert.Equal(t, MaxZoom, e.State().Zoom)

	require.NoError(t, e.SetZoom(10))
	assert.Equal(t, MinZoom, e.State().Zoom)

	require.NoError(t, e.SetZoom(math.NaN()))
	assert.Equal(t, DefaultZoom, e.State().Zoom)
}

func TestPanClampsPerAxis(t *testing.T) {
	e := openEditor(t, 600, 400)

	require.NoError(t, e.Pan(1000, 1000))
	st := e.State()
	assert.InDelta(t, 75, st.OffsetX, 1e-9)
	// 高度正好等于视口，纵向锁定
	assert.Equal(t, 0.0, st.OffsetY)
	assert.InDelta(t, 0, st.Display.X, 1e-9)

	require.NoError(t, e.Pan(-5000, 0))
	st = e.State()
	assert.InDelta(t, -75, st.OffsetX, 1e-9)
	assert.InDelta(t, DefaultViewport, st.Display.X+st.Display.W, 1e-9)
}

func TestZoomOutReclampsOffsets(t *testing.T) {
	e := openEditor(t, 600, 400)
	require.NoError(t, e.SetZoom(200))
	require.NoError(t, e.Pan(300, 200))

	require.NoError(t, e.SetZoom(100))
	st := e.State()
	assert.InDelta(t, 75, st.OffsetX, 1e-9)
	assert.Equal(t, 0.0, st.OffsetY)
	assert.True(t, st.Display.Covers(DefaultViewport))
}

func TestSmallerThanViewportLocksToZero(t *testing.T) {
	e := openEditor(t, 600, 400)
	require.NoError(t, e.SetZoom(50))
	require.NoError(t, e.Pan(40, -40))

	st := e.State()
	assert.Equal(t, 0.0, st.OffsetX)
	assert.Equal(t, 0.0, st.OffsetY)
	assert.InDelta(t, (DefaultViewport-st.Display.W)/2, st.Display.X, 1e-9)
}

func TestDisplayAlwaysCoversViewport(t *testing.T) {
	sizes := [][2]int{{600, 400}, {400, 600}, {300, 300}, {1200, 90}, {37, 500}}
	rng := rand.New(rand.NewSource(7))

	for _, size := range sizes {
		e := openEditor(t, size[0], size[1])
		for i := 0; i < 300; i++ {
			switch rng.Intn(3) {
			case 0:
				require.NoError(t, e.SetZoom(MinZoom+rng.Float64()*(MaxZoom-MinZoom)))
			case 1:
				require.NoError(t, e.Pan(rng.Float64()*800-400, rng.Float64()*800-400))
			default:
				require.NoError(t, e.ZoomAtPoint(rng.Float64()*60-30, rng.Float64()*DefaultViewport, rng.Float64()*DefaultViewport))
			}

			st := e.State()
			require.GreaterOrEqual(t, st.Zoom, MinZoom)
			require.LessOrEqual(t, st.Zoom, MaxZoom)
			if st.Display.W >= DefaultViewport && st.Display.H >= DefaultViewport {
				require.True(t, st.Display.Covers(DefaultViewport), "size=%v state=%+v", size, st)
			}
		}
	}
}

func TestZoomAtPointKeepsAnchorFixed(t *testing.T) {
	e := openEditor(t, 600, 400)
	before := e.State()

	px, py := 100.0, 150.0
	scale := before.Display.W / before.NaturalWidth
	u := (px - before.Display.X) / scale
	v := (py - before.Display.Y) / scale

	require.NoError(t, e.ZoomAtPoint(50, px, py))
	after := e.State()
	assert.Equal(t, 150.0, after.Zoom)

	scale = after.Display.W / after.NaturalWidth
	assert.InDelta(t, px, after.Display.X+u*scale, 1e-9)
	assert.InDelta(t, py, after.Display.Y+v*scale, 1e-9)
}

func TestResetAndCancel(t *testing.T) {
	e := openEditor(t, 600, 400)
	require.NoError(t, e.SetZoom(180))
	require.NoError(t, e.Pan(30, 30))

	require.NoError(t, e.Reset())
	st := e.State()
	assert.Equal(t, DefaultZoom, st.Zoom)
	assert.Equal(t, 0.0, st.OffsetX)
	assert.Equal(t, 0.0, st.OffsetY)

	e.Cancel()
	assert.Equal(t, PhaseIdle, e.State().Phase)
	assert.ErrorIs(t, e.Pan(1, 1), ErrNotEditing)
	_, err := e.Confirm()
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestOpenFailureKeepsState(t *testing.T) {
	e := openEditor(t, 600, 400)
	require.NoError(t, e.SetZoom(150))

	err := e.Open(strings.NewReader("not an image"), "broken.png")
	assert.ErrorIs(t, err, ErrDecode)

	st := e.State()
	assert.Equal(t, PhaseEditing, st.Phase)
	assert.Equal(t, "photo.png", st.Name)
	assert.Equal(t, 150.0, st.Zoom)
}

func TestConfirmRendersVisibleArea(t *testing.T) {
	e := openEditor(t, 600, 400)
	// 平移到最左侧，可见区域为原图 x∈[0,400]
	require.NoError(t, e.Pan(1000, 0))

	out, err := e.Confirm()
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", out.Name)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.True(t, strings.HasPrefix(out.DataURL, "data:image/jpeg;base64,"))
	assert.Equal(t, PhaseIdle, e.State().Phase)

	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, OutputSize, OutputSize), img.Bounds())

	r, _, b, _ := img.At(100, 360).RGBA()
	assert.Greater(t, r, b, "left side should come from the red half")
	r, _, b, _ = img.At(700, 360).RGBA()
	assert.Greater(t, b, r, "right edge should come from the blue half")
}

func TestConfirmPadsWhenZoomedOut(t *testing.T) {
	e := openEditor(t, 600, 400)
	require.NoError(t, e.SetZoom(50))

	out, err := e.Confirm()
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)

	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, r, uint32(0xE000))
	assert.Greater(t, g, uint32(0xE000))
	assert.Greater(t, b, uint32(0xE000))
}

func TestNewRejectsBadViewport(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrBadViewport)
}

func TestNonFiniteInputIsRejected(t *testing.T) {
	e := openEditor(t, 600, 400)
	require.NoError(t, e.Pan(1000, 0))
	before := e.State()

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, e.Pan(v, 0), ErrNonFinite)
		assert.ErrorIs(t, e.Pan(0, v), ErrNonFinite)
		assert.ErrorIs(t, e.ZoomAtPoint(v, 150, 150), ErrNonFinite)
		assert.ErrorIs(t, e.ZoomAtPoint(10, v, 150), ErrNonFinite)
	}
	st := e.State()
	assert.Equal(t, before, st)
	assert.True(t, st.Display.Covers(DefaultViewport))

	out, err := e.Confirm()
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	r, g, b, _ := img.At(OutputSize/2, OutputSize/2).RGBA()
	assert.Greater(t, r, b)
	assert.Less(t, g, uint32(0x4000), "centre pixel must not be blank padding")
}
