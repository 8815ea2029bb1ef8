// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render provides a GPU-backed spritetext.GraphicsContext on the
// gogpu wgpu/hal stack.
//
// Context owns a compute blit pipeline (WGSL compiled to SPIR-V via naga)
// and an RGBA8 atlas texture per allocation. The device is normally
// RECEIVED from the host application through NewContext or
// NewContextFromProvider; NewOwnedContext opens a Vulkan device for
// headless use and destroys it on Destroy.
//
// PreviewTo draws the atlas through a gpucontext.TextureDrawer, which is
// how an application embeds the label texture in a larger gogpu frame.
package render
