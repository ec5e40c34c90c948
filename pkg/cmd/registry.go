// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/homesage/homesage/pkg/registry"
	"github.com/homesage/homesage/pkg/tools/setbrightness"
	"github.com/homesage/homesage/pkg/tools/settemperature"
	"github.com/homesage/homesage/pkg/tools/triggerautomation"
	"github.com/homesage/homesage/pkg/tools/turnoff"
	"github.com/homesage/homesage/pkg/tools/turnon"
)

func registerNativeTools(reg *registry.Registry) {
	reg.RegisterTool(turnon.NewToolFactory())
	reg.RegisterTool(turnoff.NewToolFactory())
	reg.RegisterTool(settemperature.NewToolFactory())
	reg.RegisterTool(setbrightness.NewToolFactory())
	reg.RegisterTool(triggerautomation.NewToolFactory())
}

func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerNativeTools(reg)

	return reg
}
