// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host application (e.g., gogpu.App) implements DeviceHandle and
// passes it to NewContextFromProvider, so the label compositor shares
// the host's device instead of creating its own.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// local name for the interface while maintaining full compatibility
// with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider
