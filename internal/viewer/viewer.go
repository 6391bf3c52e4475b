// Package viewer runs the interactive capsule preview: an SDL2 window with
// an orbit camera around the generated mesh.
package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/capsulemaker/internal/assets"
	"github.com/Faultbox/capsulemaker/internal/config"
	"github.com/Faultbox/capsulemaker/internal/engine/camera"
	"github.com/Faultbox/capsulemaker/internal/engine/input"
	"github.com/Faultbox/capsulemaker/internal/engine/renderer"
	"github.com/Faultbox/capsulemaker/internal/engine/screenshot"
	"github.com/Faultbox/capsulemaker/internal/engine/window"
	"github.com/Faultbox/capsulemaker/internal/logger"
)

// Viewer is the main viewer instance.
type Viewer struct {
	state   State
	running bool
	log     *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	assets   *assets.Manager
	shots    *screenshot.Capture
	capture  bool
}

// New opens the window and uploads the capsule described by cfg.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		state: State{
			Params:    cfg.Capsule,
			Flat:      cfg.Flat(),
			Wireframe: cfg.Viewer.Wireframe,
		},
		log:    logger.Named("viewer"),
		camera: camera.NewOrbitCamera(),
		assets: assets.NewManager(),
		input:  input.New(),
		shots:  screenshot.New(cfg.Output.Dir, "capsuleview"),
	}

	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Viewer.Width),
		zap.Int("height", cfg.Viewer.Height),
	)

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      v.state.Title(),
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	w, h := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if err := v.regenerate(true); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// regenerate fetches the mesh for the current state and uploads it.
func (v *Viewer) regenerate(fit bool) error {
	prepared, err := v.assets.Mesh(v.state.Params, v.state.Options())
	if err != nil {
		return fmt.Errorf("generating capsule: %w", err)
	}
	if err := v.renderer.Upload(prepared.Buffers); err != nil {
		return fmt.Errorf("uploading capsule: %w", err)
	}
	if fit {
		v.camera.FitToBounds(prepared.Bounds)
	}
	v.window.SetTitle(v.state.Title())
	return nil
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting main loop")

	for v.running {
		if v.input.Update() {
			v.running = false
			break
		}

		if err := v.handleEvents(); err != nil {
			return err
		}

		v.renderer.Wireframe = v.state.Wireframe
		aspect := v.renderer.Aspect()
		v.renderer.Draw(v.camera.ViewMatrix(), v.camera.ProjectionMatrix(aspect), mgl32.Ident4())

		// The back buffer is only defined until the swap.
		if v.capture {
			v.capture = false
			v.saveScreenshot()
		}

		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() error {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(v.window.DrawableSize())
		case input.EventKeyDown:
			if event.Key == sdl.K_ESCAPE {
				v.running = false
				continue
			}
			if event.Key == sdl.K_s {
				v.capture = true
				continue
			}
			if v.state.HandleKey(event.Key) {
				if err := v.regenerate(false); err != nil {
					return err
				}
			}
		}
	}

	if v.input.IsButtonDown(sdl.BUTTON_LEFT) {
		dx, dy := v.input.Drag()
		v.camera.HandleDrag(float32(dx), float32(dy))
	}
	if wheel := v.input.Wheel(); wheel != 0 {
		v.camera.HandleZoom(wheel)
	}
	return nil
}

func (v *Viewer) saveScreenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	path, err := v.shots.Save(pixels, w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases the GL and SDL resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	hits, misses := v.assets.Stats()
	v.log.Debug("mesh cache", zap.Int("hits", hits), zap.Int("misses", misses))
	v.assets.Close()

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
