// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/evaldomacielf-sketch/jurisnexo-sub000/internal/nexo"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/delay"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/notification"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/sendemail"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/task"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/updaterecord"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/actions/webhook"
	"github.com/evaldomacielf-sketch/jurisnexo-sub000/pkg/registry"
)

// NewRegistry builds the action registry with every native action wired to
// the CRM core client.
func NewRegistry(logger *slog.Logger, core *nexo.Client) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterAction(sendemail.NewFactory(core))
	reg.RegisterAction(webhook.NewFactory())
	reg.RegisterAction(task.NewFactory(core))
	reg.RegisterAction(notification.NewFactory(core))
	reg.RegisterAction(delay.NewFactory())
	reg.RegisterAction(updaterecord.NewFactory(core))

	return reg
}
