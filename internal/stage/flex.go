package stage

import (
	"fmt"
	"log/slog"

	"flex-engine/internal/engineconfig"
	"flex-engine/internal/flex"
	"flex-engine/internal/instances"
)

// Flex adapts a flex.Controller to the Stage hooks.
type Flex struct {
	ctrl    *flex.Controller
	log     *slog.Logger
	pending chan flex.Params
}

// NewFlex wraps ctrl. The controller must already be loaded.
func NewFlex(ctrl *flex.Controller, log *slog.Logger) *Flex {
	if log == nil {
		log = slog.Default()
	}
	return &Flex{ctrl: ctrl, log: log, pending: make(chan flex.Params, 1)}
}

// Load builds a controller for cfg, registers one instance per configured spec followed
// by extra (observers such as a viewer), and loads the solver library.
func Load(cfg engineconfig.Config, backend flex.Backend, sel flex.DeviceSelector, reg *instances.Registry, log *slog.Logger, extra ...flex.Instance) (*Flex, error) {
	if log == nil {
		log = slog.Default()
	}
	insts, err := instances.Build(reg, cfg.Instances)
	if err != nil {
		return nil, fmt.Errorf("building scene: %w", err)
	}
	ctrl := flex.NewController(cfg.FlexConfig(), cfg.Params, backend, sel, log)
	for _, inst := range insts {
		ctrl.AddInstance(inst)
	}
	for _, inst := range extra {
		ctrl.AddInstance(inst)
	}
	if err := ctrl.OnLoad(); err != nil {
		return nil, err
	}
	return NewFlex(ctrl, log), nil
}

// Controller returns the wrapped controller.
func (f *Flex) Controller() *flex.Controller { return f.ctrl }

// QueueParams hands new parameters to the frame loop. It may be called from any
// goroutine; only the latest queued block is applied, at the next OnPreRenderUpdate.
func (f *Flex) QueueParams(p flex.Params) {
	for {
		select {
		case f.pending <- p:
			return
		default:
		}
		select {
		case <-f.pending:
		default:
		}
	}
}

// OnPipelineCreated builds the scene.
func (f *Flex) OnPipelineCreated() error {
	return f.ctrl.Reset()
}

// OnPreRenderUpdate applies queued parameters and syncs instances.
func (f *Flex) OnPreRenderUpdate() error {
	select {
	case p := <-f.pending:
		f.ctrl.SetParams(p)
		f.log.Info("flex: params updated", "frame", f.ctrl.Frame())
	default:
	}
	return f.ctrl.PreRenderUpdate()
}

// OnPostRenderUpdate steps the solver.
func (f *Flex) OnPostRenderUpdate() error {
	return f.ctrl.PostRenderUpdate()
}

// OnUnload releases the scene and the solver library.
func (f *Flex) OnUnload() {
	f.ctrl.OnUnload()
}
