package renderer

import (
	"fmt"
	"math/rand"

	"github.com/achilleasa/playground/effects"
	"github.com/achilleasa/playground/log"
	"github.com/achilleasa/playground/scene"
	"github.com/achilleasa/playground/types"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed
	cameraMoveSpeed float32 = 0.05

	// Height in pixels for stacked series widgets
	stackedSeriesHeight uint32 = 20
)

const (
	leftMouseButton  = 0
	rightMouseButton = 1
)

// An interactive opengl viewer. A first pass is issued whenever the engine
// reports a dirty state; accumulating passes follow while progressive
// effects have samples left. All callbacks run on the thread that calls Run.
type InteractiveViewer struct {
	logger log.Logger
	engine *Engine
	camera *scene.Camera
	width  int
	height int

	// opengl handles
	window *glfw.Window
	texFbo uint32
	fbTex  uint32

	// state
	lastCursorPos  types.Vec2
	mousePressed   [2]bool
	forceFirstPass bool

	// Display options
	showUI         bool
	passTimeSeries *stackedSeries
}

// Create a new interactive viewer for the engine. Must be called from the
// thread that will call Run.
func NewInteractive(engine *Engine, camera *scene.Camera, opts Options) (*InteractiveViewer, error) {
	v := &InteractiveViewer{
		logger: log.New("interactive viewer"),
		engine: engine,
		camera: camera,
		width:  opts.FrameW,
		height: opts.FrameH,
	}
	camera.SetSize(opts.FrameW, opts.FrameH)

	if err := v.initGL(); err != nil {
		v.Close()
		return nil, err
	}
	v.initUI()
	return v, nil
}

func (v *InteractiveViewer) Close() {
	if v.window != nil {
		v.window.Destroy()
		v.window = nil
	}
	glfw.Terminate()
}

func (v *InteractiveViewer) initGL() error {
	var err error
	if err = glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	v.window, err = glfw.CreateWindow(v.width, v.height, "playground", nil, nil)
	if err != nil {
		return fmt.Errorf("could not create opengl window: %w", err)
	}
	v.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		return fmt.Errorf("could not init opengl: %w", err)
	}

	// Setup texture for image data
	gl.GenTextures(1, &v.fbTex)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, v.fbTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(v.width), int32(v.height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	// Attach texture to FBO
	gl.GenFramebuffers(1, &v.texFbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, v.texFbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, v.fbTex, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	// Bind event callbacks
	v.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	v.window.SetKeyCallback(v.onKeyEvent)
	v.window.SetMouseButtonCallback(v.onMouseEvent)
	v.window.SetCursorPosCallback(v.onCursorPosEvent)

	return nil
}

func (v *InteractiveViewer) initUI() {
	// Setup ortho projection for UI bits
	gl.Disable(gl.DEPTH_TEST)
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadIdentity()
	gl.Ortho(0, float64(v.width), float64(v.height), 0, -1, 1)
	gl.Viewport(0, 0, int32(v.width), int32(v.height))
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()

	// One series per pass kind that traces rays
	v.passTimeSeries = makeStackedSeries(3, v.width)
}

// Run the event loop until the window is closed.
func (v *InteractiveViewer) Run() error {
	for !v.window.ShouldClose() {
		var (
			frame *Frame
			err   error
		)
		switch {
		case v.forceFirstPass || v.engine.IsDirty(v.camera):
			v.forceFirstPass = false
			frame, err = v.engine.RenderPass(v.camera, true)
		case v.engine.HasProgressiveEffectsToRender():
			frame, err = v.engine.RenderPass(v.camera, false)
		default:
			// Nothing left to accumulate
			glfw.WaitEvents()
			continue
		}
		if err != nil {
			return err
		}

		v.display(frame)
		glfw.PollEvents()
	}
	return nil
}

func (v *InteractiveViewer) display(frame *Frame) {
	img := frame.Image()
	gl.BindTexture(gl.TEXTURE_2D, v.fbTex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(frame.Width), int32(frame.Height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	// Copy texture data to framebuffer; image rows start at the top
	w, h := int32(v.width), int32(v.height)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, v.texFbo)
	gl.BlitFramebuffer(0, 0, w, h, 0, h, w, 0, gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	if v.showUI {
		v.renderUI()
	}

	v.window.SwapBuffers()
}

func (v *InteractiveViewer) renderUI() {
	var times [3]float32
	stats := v.engine.Stats()
	if len(stats.Passes) != 0 {
		last := stats.Passes[len(stats.Passes)-1]
		if last.Kind != ConvergedPass {
			times[last.Kind] = float32(last.RenderTime.Milliseconds())
		}
	}
	for seriesIndex, t := range times {
		v.passTimeSeries.Append(seriesIndex, t)
	}
	v.passTimeSeries.Render(uint32(v.height)-stackedSeriesHeight, stackedSeriesHeight)
}

func (v *InteractiveViewer) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	var moveDir mgl32.Vec3
	switch key {
	case glfw.KeyEscape:
		v.window.SetShouldClose(true)
		return
	case glfw.KeyUp:
		moveDir = mgl32.Vec3{0, 0, -1}
	case glfw.KeyDown:
		moveDir = mgl32.Vec3{0, 0, 1}
	case glfw.KeyLeft:
		moveDir = mgl32.Vec3{-1, 0, 0}
	case glfw.KeyRight:
		moveDir = mgl32.Vec3{1, 0, 0}
	case glfw.KeyTab:
		v.showUI = !v.showUI
		if v.showUI {
			v.passTimeSeries.Clear()
		}
		return
	case glfw.KeyA:
		v.engine.UseAntialiasing = !v.engine.UseAntialiasing
		v.forceFirstPass = true
		return
	case glfw.KeyD:
		v.engine.UseDepthOfField = !v.engine.UseDepthOfField
		v.forceFirstPass = true
		return
	case glfw.KeyN:
		v.engine.UseDenoiser = !v.engine.UseDenoiser
		v.forceFirstPass = true
		return
	case glfw.KeyM:
		v.cycleAntialiasingMode()
		return
	default:
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if (mods & glfw.ModShift) == glfw.ModShift {
		speedScaler = 2.0
	}
	v.camera.Move(moveDir.Mul(speedScaler * cameraMoveSpeed))
}

func (v *InteractiveViewer) cycleAntialiasingMode() {
	names := effects.SPPModeNames()
	next := names[0]
	if spp, ok := v.engine.Antialiasing.(*effects.SPP); ok {
		next = names[(int(spp.Mode())+1)%len(names)]
	}
	if err := v.engine.SetAntialiasingMode(next); err != nil {
		v.logger.Warningf("could not switch antialiasing mode: %v", err)
		return
	}
	v.logger.Noticef("antialiasing mode: %s", next)
	v.forceFirstPass = true
}

func (v *InteractiveViewer) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft && button != glfw.MouseButtonRight {
		return
	}

	v.mousePressed[leftMouseButton] = false
	v.mousePressed[rightMouseButton] = false

	if action == glfw.Press {
		xPos, yPos := w.GetCursorPos()
		v.lastCursorPos[0], v.lastCursorPos[1] = float32(xPos), float32(yPos)

		buttonIndex := leftMouseButton
		if button == glfw.MouseButtonRight {
			buttonIndex = rightMouseButton
		}

		v.mousePressed[buttonIndex] = true
	}
}

func (v *InteractiveViewer) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !v.mousePressed[leftMouseButton] && !v.mousePressed[rightMouseButton] {
		return
	}

	// Calculate delta movement and apply mouse sensitivity
	newPos := types.Vec2{float32(xPos), float32(yPos)}
	delta := v.lastCursorPos.Sub(newPos)
	delta[0] *= mouseSensitivityX
	delta[1] *= mouseSensitivityY
	v.lastCursorPos = newPos

	if v.mousePressed[leftMouseButton] {
		// The left mouse button rotates lookat around eye
		v.camera.Pitch = delta[1]
		v.camera.Yaw = delta[0]
		v.camera.Update()
		return
	}

	// The right mouse button pans the camera
	v.camera.Move(mgl32.Vec3{-delta[0], delta[1], 0})
}

type stackedSeries struct {
	series [][]float32
	colors []types.Vec3
}

func makeStackedSeries(numSeries, histCount int) *stackedSeries {
	s := &stackedSeries{
		series: make([][]float32, numSeries),
		colors: make([]types.Vec3, numSeries),
	}

	for sIndex := 0; sIndex < numSeries; sIndex++ {
		s.series[sIndex] = make([]float32, histCount)
		s.colors[sIndex] = types.Vec3{rand.Float32(), rand.Float32(), 1.0}
	}

	return s
}

// Clear series
func (s *stackedSeries) Clear() {
	histCount := len(s.series[0])
	for sIndex := 0; sIndex < len(s.series); sIndex++ {
		s.series[sIndex] = make([]float32, histCount)
	}
}

// Shift series values and append new value at the end.
func (s *stackedSeries) Append(seriesIndex int, val float32) {
	s.series[seriesIndex] = append(s.series[seriesIndex][1:], val)
}

func (s *stackedSeries) Render(rY, rHeight uint32) {
	gl.Begin(gl.LINES)
	for x := 0; x < len(s.series[0]); x++ {
		var sum float32 = 0
		var scale float32 = 1.0
		for seriesIndex := 0; seriesIndex < len(s.series); seriesIndex++ {
			sum += s.series[seriesIndex][x]
		}
		if sum > 0.0 {
			scale = float32(rHeight) / sum
		}

		var y float32 = float32(rY)
		for seriesIndex := 0; seriesIndex < len(s.series); seriesIndex++ {
			sH := s.series[seriesIndex][x] * scale
			gl.Color3fv(&s.colors[seriesIndex][0])
			gl.Vertex2f(float32(x), y)
			gl.Vertex2f(float32(x), y+sH)
			y += sH
		}
	}
	gl.End()
}
