package graphics

import (
	"fmt"

	"flex-engine/internal/stage"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Window describes the viewer window.
type Window struct {
	Title         string
	Width, Height int
}

// RunHeadless builds the stage and runs frames update cycles without a window. The stage
// is left loaded so the caller can inspect the result; unloading is the caller's job.
func RunHeadless(s stage.Stage, frames int) error {
	if err := s.OnPipelineCreated(); err != nil {
		return err
	}
	for i := range frames {
		if err := step(s, nil); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// Run opens a window, builds the stage and runs the main loop until the window is closed.
// Each frame it calls update (input, camera), then the stage's pre-render hook, then draw
// between BeginDrawing and EndDrawing, then the post-render hook that steps the solver.
func Run(s stage.Stage, win Window, update, draw func()) error {
	w, h := win.Width, win.Height
	if w <= 0 || h <= 0 {
		w, h = 1280, 720
	}
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(w), int32(h), win.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	if err := s.OnPipelineCreated(); err != nil {
		return err
	}
	for !rl.WindowShouldClose() {
		if update != nil {
			update()
		}
		if err := step(s, draw); err != nil {
			return err
		}
	}
	return nil
}

func step(s stage.Stage, draw func()) error {
	if err := s.OnPreRenderUpdate(); err != nil {
		return err
	}
	if draw != nil {
		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		draw()
		rl.EndDrawing()
	}
	return s.OnPostRenderUpdate()
}
