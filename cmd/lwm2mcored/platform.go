package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/m2mdev/lwm2mcore/update"
)

// noopPlatform is the example binary's update.Platform: it accepts
// every install/uninstall without touching the filesystem, standing in
// for the device-specific flashing/package-manager mechanism, an
// external collaborator this package never implements itself. A real
// embedder replaces this with its own Platform, not with changes to the
// update package.
type noopPlatform struct{}

func (noopPlatform) Install(ctx context.Context, t update.Type, pkg []byte) error {
	logrus.WithField("type", t).WithField("bytes", len(pkg)).Info("platform: install (no-op)")
	return nil
}

func (noopPlatform) Uninstall(ctx context.Context, t update.Type) error {
	logrus.WithField("type", t).Info("platform: uninstall (no-op)")
	return nil
}
