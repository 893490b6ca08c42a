package vulkan

import (
	"fmt"
	gomath "math"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/quadro/engine/core"
	kmath "github.com/spaghettifunk/quadro/engine/math"
	"github.com/spaghettifunk/quadro/engine/platform"
	"github.com/spaghettifunk/quadro/engine/renderer/metadata"
)

// Config carries everything the backend needs at startup.
type Config struct {
	AppName        string
	FramesInFlight int
	VSync          bool
	Debug          bool

	VertexShader   []byte
	FragmentShader []byte

	TexturePixels []byte
	TextureWidth  uint32
	TextureHeight uint32
}

// VulkanRenderer owns every Vulkan handle behind the renderer contract:
// instance, device, swapchain, pipeline, geometry and per-slot uniform
// state. Synchronization object ordering is the frame scheduler's job.
type VulkanRenderer struct {
	platform *platform.Platform
	config   *Config
	context  *VulkanContext

	vertexShaderStage   *VulkanShaderStage
	fragmentShaderStage *VulkanShaderStage
	pipeline            *VulkanPipeline

	vertexBuffer *VulkanBuffer
	indexBuffer  *VulkanBuffer
	indexCount   uint32

	// One host-visible, persistently mapped uniform buffer per frame slot.
	uniformBuffers []*VulkanBuffer

	texture *VulkanTexture

	descriptorSetLayout vk.DescriptorSetLayout
	descriptorPool      vk.DescriptorPool
	descriptorSets      []vk.DescriptorSet
}

// The quad: four corners with distinct colours, textured edge to edge.
var quadVertices = []kmath.Vertex2D{
	{Position: kmath.Vec2{X: -0.5, Y: -0.5}, Colour: kmath.Vec3{X: 1, Y: 0, Z: 0}, Texcoord: kmath.Vec2{X: 1, Y: 0}},
	{Position: kmath.Vec2{X: 0.5, Y: -0.5}, Colour: kmath.Vec3{X: 0, Y: 1, Z: 0}, Texcoord: kmath.Vec2{X: 0, Y: 0}},
	{Position: kmath.Vec2{X: 0.5, Y: 0.5}, Colour: kmath.Vec3{X: 0, Y: 0, Z: 1}, Texcoord: kmath.Vec2{X: 0, Y: 1}},
	{Position: kmath.Vec2{X: -0.5, Y: 0.5}, Colour: kmath.Vec3{X: 1, Y: 1, Z: 1}, Texcoord: kmath.Vec2{X: 1, Y: 1}},
}

var quadIndices = []uint16{0, 1, 2, 2, 3, 0}

func New(p *platform.Platform, cfg *Config) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		config:   cfg,
		context: &VulkanContext{
			Allocator: nil,
			Tracker:   core.NewHandleTracker(),
		},
	}
}

func (vr *VulkanRenderer) Initialize() error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}

	width, height := vr.platform.DrawableExtent()
	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height

	if err := vr.createInstance(); err != nil {
		return err
	}

	if vr.config.Debug {
		if err := vr.createDebugger(); err != nil {
			return err
		}
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed.")
		return err
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	// Device creation
	vr.context.Device = &VulkanDevice{}
	if err := DeviceCreate(vr.context); err != nil {
		core.LogError("Failed to create device!")
		return err
	}

	// Swapchain
	sc, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight, vr.config.VSync)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	rp, err := RenderpassCreate(
		vr.context,
		0, 0, float32(sc.Extent.Width), float32(sc.Extent.Height),
		0.0, 0.0, 0.0, 1.0)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = rp

	if err := vr.regenerateFramebuffers(); err != nil {
		return err
	}

	// Geometry
	if err := vr.createGeometryBuffers(); err != nil {
		return err
	}

	// Per-slot uniform buffers
	if err := vr.createUniformBuffers(); err != nil {
		return err
	}

	// Texture
	texture, err := TextureCreate(vr.context, vr.config.TexturePixels, vr.config.TextureWidth, vr.config.TextureHeight)
	if err != nil {
		return err
	}
	vr.texture = texture

	// Shaders and pipeline
	if err := vr.createPipeline(); err != nil {
		return err
	}

	// Descriptors
	if err := vr.createDescriptorSets(); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.config.AppName),
		PEngineName:        VulkanSafeString("Quadro Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	if vr.config.Debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogInfo("Required extensions:")
		for i := range requiredExtensions {
			core.LogInfo(requiredExtensions[i])
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers. Only enabled on debug builds.
	requiredValidationLayerNames := []string{}
	if vr.config.Debug {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}

		if runtime.GOOS == "darwin" {
			createInfo.Flags |= 1
		}

		var availableLayerCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layer properties")
			core.LogError(err.Error())
			return err
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layer properties")
			core.LogError(err.Error())
			return err
		}

		// Verify all required layers are available.
		for i := range requiredValidationLayerNames {
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				end := FindFirstZeroInByteArray(availableLayers[j].LayerName[:])
				if requiredValidationLayerNames[i] == vk.ToString(availableLayers[j].LayerName[:end+1]) {
					found = true
					break
				}
			}
			if !found {
				err := fmt.Errorf("required validation layer is missing: %s", requiredValidationLayerNames[i])
				core.LogError(err.Error())
				return err
			}
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("Vulkan Instance created.")
	return nil
}

func (vr *VulkanRenderer) createDebugger() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
		PfnCallback: dbgCallbackFunc,
		PNext:       nil,
	}

	var dbg vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
		core.LogError("vk.CreateDebugReportCallback failed with %s", err)
		return err
	}
	vr.context.debugMessenger = dbg

	core.LogDebug("Vulkan debugger created.")
	return nil
}

func (vr *VulkanRenderer) regenerateFramebuffers() error {
	sc := vr.context.Swapchain
	sc.Framebuffers = make([]*VulkanFramebuffer, sc.ImageCount)
	for i := 0; i < int(sc.ImageCount); i++ {
		attachments := []vk.ImageView{sc.Views[i]}
		fb, err := FramebufferCreate(vr.context, vr.context.MainRenderpass, sc.Extent.Width, sc.Extent.Height, attachments)
		if err != nil {
			core.LogError("failed to create framebuffer for image %d", i)
			return err
		}
		sc.Framebuffers[i] = fb
	}
	return nil
}

func (vr *VulkanRenderer) createGeometryBuffers() error {
	vertexBuffer, err := uploadDeviceLocal(vr.context, sliceToBytes(quadVertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return fmt.Errorf("failed to create vertex buffer: %w", err)
	}
	vr.vertexBuffer = vertexBuffer

	indexBuffer, err := uploadDeviceLocal(vr.context, sliceToBytes(quadIndices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		return fmt.Errorf("failed to create index buffer: %w", err)
	}
	vr.indexBuffer = indexBuffer
	vr.indexCount = uint32(len(quadIndices))

	return nil
}

func (vr *VulkanRenderer) createUniformBuffers() error {
	size := vk.DeviceSize(unsafe.Sizeof(metadata.UniformObject{}))
	vr.uniformBuffers = make([]*VulkanBuffer, vr.config.FramesInFlight)
	for i := range vr.uniformBuffers {
		buffer, err := BufferCreate(
			vr.context,
			size,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		)
		if err != nil {
			return fmt.Errorf("failed to create uniform buffer for slot %d: %w", i, err)
		}
		if err := buffer.Map(vr.context); err != nil {
			return err
		}
		vr.uniformBuffers[i] = buffer
	}
	return nil
}

func (vr *VulkanRenderer) createPipeline() error {
	vertexStage, err := NewShaderModule(vr.context, vr.config.VertexShader, vk.ShaderStageVertexBit)
	if err != nil {
		return err
	}
	vr.vertexShaderStage = vertexStage

	fragmentStage, err := NewShaderModule(vr.context, vr.config.FragmentShader, vk.ShaderStageFragmentBit)
	if err != nil {
		return err
	}
	vr.fragmentShaderStage = fragmentStage

	// Descriptor set layout: uniform block for the vertex stage, combined
	// image sampler for the fragment stage.
	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(vr.context.Device.LogicalDevice, &layoutInfo, vr.context.Allocator, &layout); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor set layout with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vr.descriptorSetLayout = layout

	vertex := kmath.Vertex2D{}
	attributes := []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(vertex.Position)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(vertex.Colour)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(vertex.Texcoord)),
		},
	}

	extent := vr.context.Swapchain.Extent
	pipeline, err := NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
		Renderpass:           vr.context.MainRenderpass,
		Stride:               uint32(unsafe.Sizeof(vertex)),
		Attributes:           attributes,
		DescriptorSetLayouts: []vk.DescriptorSetLayout{vr.descriptorSetLayout},
		Stages: []vk.PipelineShaderStageCreateInfo{
			vertexStage.ShaderStageCreateInfo,
			fragmentStage.ShaderStageCreateInfo,
		},
		Viewport: vk.Viewport{
			X: 0, Y: 0,
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Scissor: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
	})
	if err != nil {
		return err
	}
	vr.pipeline = pipeline

	return nil
}

func (vr *VulkanRenderer) createDescriptorSets() error {
	count := uint32(vr.config.FramesInFlight)

	poolSizes := []vk.DescriptorPoolSize{
		{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: count,
		},
		{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: count,
		},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       count,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(vr.context.Device.LogicalDevice, &poolInfo, vr.context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor pool with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vr.descriptorPool = pool

	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = vr.descriptorSetLayout
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     vr.descriptorPool,
		DescriptorSetCount: count,
		PSetLayouts:        layouts,
	}

	vr.descriptorSets = make([]vk.DescriptorSet, count)
	if res := vk.AllocateDescriptorSets(vr.context.Device.LogicalDevice, &allocInfo, &vr.descriptorSets[0]); res != vk.Success {
		err := fmt.Errorf("failed to allocate descriptor sets with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}

	vr.writeDescriptorSets()
	return nil
}

// writeDescriptorSets points every slot's set at its uniform buffer and
// the current texture. Re-run after a texture reload.
func (vr *VulkanRenderer) writeDescriptorSets() {
	for i := range vr.descriptorSets {
		bufferInfo := vk.DescriptorBufferInfo{
			Buffer: vr.uniformBuffers[i].Handle,
			Offset: 0,
			Range:  vk.DeviceSize(vk.WholeSize),
		}
		imageInfo := vk.DescriptorImageInfo{
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			ImageView:   vr.texture.View,
			Sampler:     vr.texture.Sampler,
		}

		descriptorWrites := []vk.WriteDescriptorSet{
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          vr.descriptorSets[i],
				DstBinding:      0,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeUniformBuffer,
				DescriptorCount: 1,
				PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
			},
			{
				SType:           vk.StructureTypeWriteDescriptorSet,
				DstSet:          vr.descriptorSets[i],
				DstBinding:      1,
				DstArrayElement: 0,
				DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
				DescriptorCount: 1,
				PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
			},
		}

		vk.UpdateDescriptorSets(vr.context.Device.LogicalDevice, uint32(len(descriptorWrites)), descriptorWrites, 0, nil)
	}
}

func (vr *VulkanRenderer) CreateFence(signaled bool) (metadata.Fence, error) {
	return NewFence(vr.context, signaled)
}

func (vr *VulkanRenderer) CreateSemaphore() (metadata.Semaphore, error) {
	return NewSemaphore(vr.context)
}

func (vr *VulkanRenderer) CreateCommandBuffer() (metadata.CommandBuffer, error) {
	return NewVulkanCommandBuffer(vr.context, vr.context.Device.GraphicsCommandPool, true)
}

func (vr *VulkanRenderer) Acquire(imageAvailable metadata.Semaphore) (uint32, metadata.AcquireStatus, error) {
	sem := imageAvailable.(*VulkanSemaphore)
	return vr.context.Swapchain.SwapchainAcquireNextImageIndex(vr.context, gomath.MaxUint64, sem.Handle)
}

func (vr *VulkanRenderer) UpdateUniform(slot int, ubo metadata.UniformObject) error {
	if slot < 0 || slot >= len(vr.uniformBuffers) {
		err := fmt.Errorf("uniform slot %d out of range", slot)
		core.LogError(err.Error())
		return err
	}
	vk.Memcopy(vr.uniformBuffers[slot].Mapped, structToBytes(&ubo))
	return nil
}

// Record encodes a full draw of the quad into buf, targeting the given
// presentable image with the given slot's descriptor set.
func (vr *VulkanRenderer) Record(buf metadata.CommandBuffer, imageIndex uint32, slot int) error {
	cb := buf.(*VulkanCommandBuffer)

	if err := cb.Begin(false, false, false); err != nil {
		return err
	}

	extent := vr.context.Swapchain.Extent
	vr.context.MainRenderpass.W = float32(extent.Width)
	vr.context.MainRenderpass.H = float32(extent.Height)
	vr.context.MainRenderpass.RenderpassBegin(cb, vr.context.Swapchain.Framebuffers[imageIndex].Handle)

	vr.pipeline.Bind(cb, vk.PipelineBindPointGraphics)

	viewport := vk.Viewport{
		X: 0, Y: 0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})

	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{vr.vertexBuffer.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cb.Handle, vr.indexBuffer.Handle, 0, vk.IndexTypeUint16)

	vk.CmdBindDescriptorSets(
		cb.Handle,
		vk.PipelineBindPointGraphics,
		vr.pipeline.PipelineLayout,
		0,
		1,
		[]vk.DescriptorSet{vr.descriptorSets[slot]},
		0,
		nil,
	)

	vk.CmdDrawIndexed(cb.Handle, vr.indexCount, 1, 0, 0, 0)

	vr.context.MainRenderpass.RenderpassEnd(cb)
	return cb.End()
}

func (vr *VulkanRenderer) Submit(buf metadata.CommandBuffer, imageAvailable, renderFinished metadata.Semaphore, fence metadata.Fence) error {
	cb := buf.(*VulkanCommandBuffer)
	vFence := fence.(*VulkanFence)

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
		// The signal semaphore gates presentation of this image.
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{renderFinished.(*VulkanSemaphore).Handle},
		// Wait for the image at the color-output stage: earlier pipeline
		// stages may run before the image is actually free.
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{imageAvailable.(*VulkanSemaphore).Handle},
		PWaitDstStageMask:  []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
	}

	if result := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vFence.Handle); result != vk.Success {
		err := fmt.Errorf("vkQueueSubmit failed with result: %s", VulkanResultString(result, true))
		core.LogError(err.Error())
		return err
	}

	cb.UpdateSubmitted()
	return nil
}

func (vr *VulkanRenderer) Present(imageIndex uint32, renderFinished metadata.Semaphore) (metadata.PresentStatus, error) {
	sem := renderFinished.(*VulkanSemaphore)
	return vr.context.Swapchain.SwapchainPresent(vr.context, vr.context.Device.PresentQueue, sem.Handle, imageIndex)
}

// RecreateSwapchain tears down and rebuilds the swapchain and its
// image-owned objects (views, framebuffers) for the given extent.
func (vr *VulkanRenderer) RecreateSwapchain(extent metadata.Extent) (int, error) {
	// Requery support: capabilities change with the surface.
	if err := DeviceQuerySwapchainSupport(vr.context.Device.PhysicalDevice, vr.context.Surface, &vr.context.Device.SwapchainSupport); err != nil {
		return 0, err
	}

	sc, err := vr.context.Swapchain.SwapchainRecreate(vr.context, extent.Width, extent.Height)
	if err != nil {
		return 0, err
	}
	vr.context.Swapchain = sc

	vr.context.FramebufferWidth = sc.Extent.Width
	vr.context.FramebufferHeight = sc.Extent.Height
	vr.context.MainRenderpass.X = 0
	vr.context.MainRenderpass.Y = 0
	vr.context.MainRenderpass.W = float32(sc.Extent.Width)
	vr.context.MainRenderpass.H = float32(sc.Extent.Height)

	if err := vr.regenerateFramebuffers(); err != nil {
		return 0, err
	}

	return int(sc.ImageCount), nil
}

func (vr *VulkanRenderer) ImageCount() int {
	return int(vr.context.Swapchain.ImageCount)
}

func (vr *VulkanRenderer) RenderExtent() metadata.Extent {
	return metadata.Extent{
		Width:  vr.context.Swapchain.Extent.Width,
		Height: vr.context.Swapchain.Extent.Height,
	}
}

func (vr *VulkanRenderer) SurfaceExtent() metadata.Extent {
	width, height := vr.platform.DrawableExtent()
	return metadata.Extent{Width: width, Height: height}
}

func (vr *VulkanRenderer) PumpEvents() {
	vr.platform.WaitMessages()
}

func (vr *VulkanRenderer) WaitIdle() error {
	if result := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice); !VulkanResultIsSuccess(result) {
		err := fmt.Errorf("vkDeviceWaitIdle failed: '%s'", VulkanResultString(result, true))
		core.LogError(err.Error())
		return err
	}
	return nil
}

// ReloadTexture replaces the quad texture with new RGBA8 pixel data and
// rewrites every descriptor set to point at it.
func (vr *VulkanRenderer) ReloadTexture(pixels []byte, width, height uint32) error {
	newTexture, err := TextureCreate(vr.context, pixels, width, height)
	if err != nil {
		return err
	}

	// The old texture may still be referenced by in-flight frames.
	if err := vr.WaitIdle(); err != nil {
		newTexture.Destroy(vr.context)
		return err
	}

	old := vr.texture
	vr.texture = newTexture
	vr.writeDescriptorSets()
	old.Destroy(vr.context)

	core.LogInfo("texture reloaded: %dx%d", width, height)
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	if err := vr.WaitIdle(); err != nil {
		return err
	}

	// Destroy in the opposite order of creation.
	if vr.descriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(vr.context.Device.LogicalDevice, vr.descriptorPool, vr.context.Allocator)
		vr.descriptorPool = vk.NullDescriptorPool
	}
	if vr.descriptorSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(vr.context.Device.LogicalDevice, vr.descriptorSetLayout, vr.context.Allocator)
		vr.descriptorSetLayout = vk.NullDescriptorSetLayout
	}

	if vr.pipeline != nil {
		vr.pipeline.Destroy(vr.context)
	}
	if vr.vertexShaderStage != nil {
		vr.vertexShaderStage.Destroy(vr.context)
	}
	if vr.fragmentShaderStage != nil {
		vr.fragmentShaderStage.Destroy(vr.context)
	}

	if vr.texture != nil {
		vr.texture.Destroy(vr.context)
	}

	for _, buffer := range vr.uniformBuffers {
		buffer.Destroy(vr.context)
	}
	vr.uniformBuffers = nil

	if vr.indexBuffer != nil {
		vr.indexBuffer.Destroy(vr.context)
	}
	if vr.vertexBuffer != nil {
		vr.vertexBuffer.Destroy(vr.context)
	}

	vr.context.MainRenderpass.RenderpassDestroy(vr.context)
	vr.context.Swapchain.SwapchainDestroy(vr.context)

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.config.Debug {
		core.LogDebug("Destroying Vulkan debugger...")
		if vr.context.debugMessenger != vk.NullDebugReportCallback {
			vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
		}
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)

	// Anything still registered here was leaked.
	vr.context.Tracker.Report()
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
