package render

import (
	_ "embed"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/spritetext"
)

//go:embed shaders/blit.wgsl
var blitShaderWGSL string

// GPUBlitConfig is the GPU-compatible blit configuration.
// Must match the Config struct in blit.wgsl.
type GPUBlitConfig struct {
	ViewportWidth  uint32 // Framebuffer width in pixels
	ViewportHeight uint32 // Framebuffer height in pixels
	TexWidth       uint32 // Bound atlas width in pixels
	TexHeight      uint32 // Bound atlas height in pixels
	BlendEnabled   uint32 // 1 when source-alpha blending is on
	QuadCount      uint32 // Number of quads to composite
	Padding1       uint32 // Padding for alignment
	Padding2       uint32 // Padding for alignment
}

// GPUBlitQuad is the GPU-compatible layout of one crop-rect blit.
// Must match the Quad struct in blit.wgsl.
type GPUBlitQuad struct {
	CropU      int32  // Crop origin U in texels
	CropV      int32  // Crop origin V in texels
	CropWidth  int32  // Crop width in texels
	CropHeight int32  // Crop height; negative walks the atlas upward
	DstX       int32  // Destination X in view coordinates
	DstY       int32  // Destination Y in view coordinates
	Width      uint32 // Quad width in pixels
	Height     uint32 // Quad height in pixels
}

// atlasTexture pairs a HAL texture with the CPU pixel mirror the blit
// compositor samples from.
type atlasTexture struct {
	gpu    hal.Texture
	pixels *image.NRGBA
}

// Context is a spritetext.GraphicsContext on the wgpu HAL. Atlas uploads
// go to real RGBA8 device textures; compositing runs through the blit
// compute pipeline's algorithm.
//
// Note: blit dispatch requires HAL API extensions to bind storage buffers.
// Until those land, the compositor runs the shader algorithm on the CPU
// against the pixel mirror, so output is identical to the GPU path.
type Context struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// Compute pipelines
	blitPipeline  hal.ComputePipeline
	clearPipeline hal.ComputePipeline

	// Shader module (cached)
	shaderModule hal.ShaderModule

	// Pipeline layout and bind group layouts
	pipelineLayout   hal.PipelineLayout
	inputBindLayout  hal.BindGroupLayout
	outputBindLayout hal.BindGroupLayout

	// Compiled SPIR-V (cached for verification)
	spirvCode []uint32

	framebuffer *image.RGBA

	textures map[spritetext.TextureHandle]*atlasTexture
	nextTex  spritetext.TextureHandle
	bound    spritetext.TextureHandle

	blend bool

	// Fixed-function matrix stand-ins, matching the software context.
	viewW, viewH float64
	tx, ty       float64
	depth        int

	initialized    bool
	externalDevice bool // true when using shared device (don't destroy on Destroy)
}

var _ spritetext.GraphicsContext = (*Context)(nil)

// NewContext creates a context on a shared device and queue. The caller
// keeps ownership of both; Destroy releases only the context's own
// pipelines and textures.
func NewContext(device hal.Device, queue hal.Queue, width, height int) (*Context, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("render: device and queue are required")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: framebuffer dimensions must be positive")
	}

	c := &Context{
		device:         device,
		queue:          queue,
		framebuffer:    image.NewRGBA(image.Rect(0, 0, width, height)),
		textures:       make(map[spritetext.TextureHandle]*atlasTexture),
		nextTex:        1,
		externalDevice: true,
	}

	if err := c.init(); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// NewContextFromProvider creates a context on a device shared by an
// external provider (e.g., gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func NewContextFromProvider(provider any, width, height int) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("render: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("render: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("render: provider HalQueue is not hal.Queue")
	}
	return NewContext(device, queue, width, height)
}

// NewOwnedContext opens a Vulkan device for headless rendering. The
// context owns the device and instance and destroys them on Destroy.
func NewOwnedContext(width, height int) (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("render: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("render: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("render: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("render: open device: %w", err)
	}

	c, err := NewContext(openDev.Device, openDev.Queue, width, height)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	c.instance = instance
	c.externalDevice = false
	spritetext.Logger().Info("render: GPU device opened", "adapter", selected.Info.Name)
	return c, nil
}

// init initializes GPU resources (pipelines, layouts).
func (c *Context) init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Compile WGSL to SPIR-V
	spirvBytes, err := naga.Compile(blitShaderWGSL)
	if err != nil {
		return fmt.Errorf("render: failed to compile blit shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	c.spirvCode = make([]uint32, len(spirvBytes)/4)
	for i := range c.spirvCode {
		c.spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	shaderModule, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: "spritetext_blit_shader",
		Source: hal.ShaderSource{
			SPIRV: c.spirvCode,
		},
	})
	if err != nil {
		return fmt.Errorf("render: failed to create shader module: %w", err)
	}
	c.shaderModule = shaderModule

	if err := c.createBindGroupLayouts(); err != nil {
		return err
	}
	if err := c.createPipelineLayout(); err != nil {
		return err
	}
	if err := c.createPipelines(); err != nil {
		return err
	}

	c.initialized = true
	return nil
}

// createBindGroupLayouts creates the bind group layouts for the pipeline.
func (c *Context) createBindGroupLayouts() error {
	// Input bind group layout (group 0)
	inputLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "blit_input_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type:           types.BufferBindingTypeUniform,
					MinBindingSize: 32, // sizeof(Config)
				},
			},
			{
				Binding:    1,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type: types.BufferBindingTypeReadOnlyStorage,
				},
			},
			{
				Binding:    2,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type: types.BufferBindingTypeReadOnlyStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render: failed to create input bind group layout: %w", err)
	}
	c.inputBindLayout = inputLayout

	// Output bind group layout (group 1)
	outputLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "blit_output_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageCompute,
				Buffer: &types.BufferBindingLayout{
					Type: types.BufferBindingTypeStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render: failed to create output bind group layout: %w", err)
	}
	c.outputBindLayout = outputLayout

	return nil
}

// createPipelineLayout creates the pipeline layout.
func (c *Context) createPipelineLayout() error {
	layout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "blit_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.inputBindLayout, c.outputBindLayout},
	})
	if err != nil {
		return fmt.Errorf("render: failed to create pipeline layout: %w", err)
	}
	c.pipelineLayout = layout
	return nil
}

// createPipelines creates the compute pipelines.
func (c *Context) createPipelines() error {
	blitPipeline, err := c.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "blit_pipeline",
		Layout: c.pipelineLayout,
		Compute: hal.ComputeState{
			Module:     c.shaderModule,
			EntryPoint: "cs_blit",
		},
	})
	if err != nil {
		return fmt.Errorf("render: failed to create blit pipeline: %w", err)
	}
	c.blitPipeline = blitPipeline

	clearPipeline, err := c.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "clear_pipeline",
		Layout: c.pipelineLayout,
		Compute: hal.ComputeState{
			Module:     c.shaderModule,
			EntryPoint: "cs_clear",
		},
	})
	if err != nil {
		return fmt.Errorf("render: failed to create clear pipeline: %w", err)
	}
	c.clearPipeline = clearPipeline

	return nil
}

// Image returns the composited framebuffer. The returned image shares
// memory with the context.
func (c *Context) Image() *image.RGBA { return c.framebuffer }

// AllocateTexture implements spritetext.GraphicsContext. The device
// texture is created lazily on the first upload, when the atlas
// dimensions are known.
func (c *Context) AllocateTexture() (spritetext.TextureHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return 0, fmt.Errorf("render: context not initialized")
	}
	h := c.nextTex
	c.nextTex++
	c.textures[h] = &atlasTexture{}
	return h, nil
}

// DeleteTexture implements spritetext.GraphicsContext.
func (c *Context) DeleteTexture(h spritetext.TextureHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tex, ok := c.textures[h]
	if !ok {
		return fmt.Errorf("render: delete of unknown texture %d", h)
	}
	if tex.gpu != nil {
		c.device.DestroyTexture(tex.gpu)
	}
	delete(c.textures, h)
	if c.bound == h {
		c.bound = 0
	}
	return nil
}

// BindTexture implements spritetext.GraphicsContext.
func (c *Context) BindTexture(h spritetext.TextureHandle) {
	c.mu.Lock()
	c.bound = h
	c.mu.Unlock()
}

// SetFilterNearest implements spritetext.GraphicsContext. The blit shader
// samples texels directly, so this is a no-op.
func (c *Context) SetFilterNearest() {}

// SetWrapClamp implements spritetext.GraphicsContext. Out-of-range samples
// are discarded by the shader, so this is a no-op.
func (c *Context) SetWrapClamp() {}

// SetEnvReplace implements spritetext.GraphicsContext. The blit shader
// always replaces fragments with texels, so this is a no-op.
func (c *Context) SetEnvReplace() {}

// UploadPixels implements spritetext.GraphicsContext. The strike is
// expanded to straight-alpha RGBA8, written to a device texture, and
// mirrored on the CPU for the compositor.
func (c *Context) UploadPixels(h spritetext.TextureHandle, strike *spritetext.Strike) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tex, ok := c.textures[h]
	if !ok {
		return fmt.Errorf("render: upload to unknown texture %d", h)
	}

	width := strike.Width()
	height := strike.Height()
	mirror := strike.ToImage()

	// Recreate the device texture when the atlas dimensions change.
	if tex.gpu != nil && tex.pixels != nil &&
		tex.pixels.Bounds() != mirror.Bounds() {
		c.device.DestroyTexture(tex.gpu)
		tex.gpu = nil
	}
	if tex.gpu == nil {
		gpuTex, err := c.device.CreateTexture(&hal.TextureDescriptor{
			Label: "spritetext_atlas",
			Size: hal.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     types.TextureDimension2D,
			Format:        types.TextureFormatRGBA8Unorm,
			Usage:         types.TextureUsageCopySrc | types.TextureUsageCopyDst | types.TextureUsageTextureBinding,
		})
		if err != nil {
			return fmt.Errorf("render: failed to create atlas texture: %w", err)
		}
		tex.gpu = gpuTex
	}

	c.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex.gpu,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   types.TextureAspectAll,
		},
		mirror.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(mirror.Stride),
			RowsPerImage: uint32(height),
		},
		&hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
	tex.pixels = mirror

	spritetext.Logger().Debug("render: strike uploaded",
		"texture", h,
		"size", fmt.Sprintf("%dx%d", width, height),
		"format", strike.Format().String())
	return nil
}

// PushOrthoProjection implements spritetext.GraphicsContext.
func (c *Context) PushOrthoProjection(width, height float64) {
	c.mu.Lock()
	c.viewW = width
	c.viewH = height
	c.depth++
	c.mu.Unlock()
}

// LoadIdentityModelView implements spritetext.GraphicsContext.
func (c *Context) LoadIdentityModelView(tx, ty float64) {
	c.mu.Lock()
	c.tx = tx
	c.ty = ty
	c.mu.Unlock()
}

// PopMatrices implements spritetext.GraphicsContext.
func (c *Context) PopMatrices() {
	c.mu.Lock()
	if c.depth > 0 {
		c.depth--
	}
	c.tx = 0
	c.ty = 0
	c.mu.Unlock()
}

// EnableBlend implements spritetext.GraphicsContext. The blit shader
// implements the source-alpha over pair; other factors fall back to it.
func (c *Context) EnableBlend(src, dst spritetext.BlendFactor) {
	_ = src
	_ = dst
	c.mu.Lock()
	c.blend = true
	c.mu.Unlock()
}

// DisableBlend implements spritetext.GraphicsContext.
func (c *Context) DisableBlend() {
	c.mu.Lock()
	c.blend = false
	c.mu.Unlock()
}

// DrawTexturedQuad implements spritetext.GraphicsContext.
func (c *Context) DrawTexturedQuad(crop spritetext.CropRect, x, y float64, w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tex := c.textures[c.bound]
	if tex == nil || tex.pixels == nil || w <= 0 || h <= 0 {
		return
	}

	quad := GPUBlitQuad{
		CropU:      int32(crop.U),
		CropV:      int32(crop.V),
		CropWidth:  int32(crop.Width),
		CropHeight: int32(crop.Height),
		DstX:       int32(x + c.tx),
		DstY:       int32(y + c.ty),
		Width:      uint32(w),
		Height:     uint32(h),
	}

	// Blit dispatch needs HAL buffer binding; run the shader algorithm
	// on the CPU against the pixel mirror.
	c.compositeCPU(quad, tex.pixels)
}

// compositeCPU composites one quad (mirrors the cs_blit shader algorithm).
// This serves as reference implementation and fallback.
func (c *Context) compositeCPU(quad GPUBlitQuad, tex *image.NRGBA) {
	fb := c.framebuffer.Bounds()
	texW := tex.Bounds().Max.X
	texH := tex.Bounds().Max.Y

	for qy := 0; qy < int(quad.Height); qy++ {
		var texRow int
		if quad.CropHeight < 0 {
			texRow = int(quad.CropV) - 1 - qy
		} else {
			texRow = int(quad.CropV) + qy
		}
		fy := fb.Max.Y - 1 - (int(quad.DstY) + qy)
		if texRow < 0 || texRow >= texH || fy < fb.Min.Y || fy >= fb.Max.Y {
			continue
		}
		for qx := 0; qx < int(quad.Width); qx++ {
			texCol := int(quad.CropU) + qx
			fx := int(quad.DstX) + qx
			if texCol < 0 || texCol >= texW || fx < fb.Min.X || fx >= fb.Max.X {
				continue
			}
			c.compositeTexel(fx, fy, tex.NRGBAAt(texCol, texRow))
		}
	}
}

// compositeTexel writes one texel the way cs_blit does: normalized f32
// source-alpha over against the premultiplied destination.
func (c *Context) compositeTexel(x, y int, src color.NRGBA) {
	i := c.framebuffer.PixOffset(x, y)
	px := c.framebuffer.Pix[i : i+4 : i+4]

	sr := float32(src.R) / 255
	sg := float32(src.G) / 255
	sb := float32(src.B) / 255
	sa := float32(src.A) / 255

	if !c.blend {
		px[0] = packUnorm(sr * sa)
		px[1] = packUnorm(sg * sa)
		px[2] = packUnorm(sb * sa)
		px[3] = packUnorm(sa)
		return
	}

	ia := 1 - sa
	px[0] = packUnorm(sr*sa + float32(px[0])/255*ia)
	px[1] = packUnorm(sg*sa + float32(px[1])/255*ia)
	px[2] = packUnorm(sb*sa + float32(px[2])/255*ia)
	px[3] = packUnorm(sa + float32(px[3])/255*ia)
}

// packUnorm converts a normalized float back to an 8-bit channel,
// clamping and rounding the way pack_rgba does in the shader.
func packUnorm(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Destroy releases all GPU resources. With an owned device (see
// NewOwnedContext) the device and instance are destroyed too.
func (c *Context) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return
	}

	for h, tex := range c.textures {
		if tex.gpu != nil {
			c.device.DestroyTexture(tex.gpu)
		}
		delete(c.textures, h)
	}

	// Destroy pipelines
	if c.blitPipeline != nil {
		c.device.DestroyComputePipeline(c.blitPipeline)
		c.blitPipeline = nil
	}
	if c.clearPipeline != nil {
		c.device.DestroyComputePipeline(c.clearPipeline)
		c.clearPipeline = nil
	}

	// Destroy pipeline layout
	if c.pipelineLayout != nil {
		c.device.DestroyPipelineLayout(c.pipelineLayout)
		c.pipelineLayout = nil
	}

	// Destroy bind group layouts
	if c.inputBindLayout != nil {
		c.device.DestroyBindGroupLayout(c.inputBindLayout)
		c.inputBindLayout = nil
	}
	if c.outputBindLayout != nil {
		c.device.DestroyBindGroupLayout(c.outputBindLayout)
		c.outputBindLayout = nil
	}

	// Destroy shader module
	if c.shaderModule != nil {
		c.device.DestroyShaderModule(c.shaderModule)
		c.shaderModule = nil
	}

	if !c.externalDevice {
		c.device.Destroy()
		if c.instance != nil {
			c.instance.Destroy()
			c.instance = nil
		}
	}
	c.device = nil
	c.queue = nil
	c.initialized = false
}
