package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/quadro/engine/core"
	kmath "github.com/spaghettifunk/quadro/engine/math"
	"github.com/spaghettifunk/quadro/engine/renderer/metadata"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	Handle      vk.Swapchain
	Extent      vk.Extent2D
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	// framebuffers used for on-screen rendering, one per image.
	Framebuffers []*VulkanFramebuffer

	vsync bool
}

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

func SwapchainCreate(context *VulkanContext, width, height uint32, vsync bool) (*VulkanSwapchain, error) {
	return createSwapchain(context, width, height, vsync)
}

func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	// Destroy the old and create a new one.
	vsync := vs.vsync
	vs.destroySwapchain(context)
	return createSwapchain(context, width, height, vsync)
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// SwapchainAcquireNextImageIndex requests the next presentable image,
// arranging for imageAvailableSemaphore to be signaled once it is free.
// Staleness is reported through the status, never through the error.
func (vs *VulkanSwapchain) SwapchainAcquireNextImageIndex(context *VulkanContext, timeoutNs uint64, imageAvailableSemaphore vk.Semaphore) (uint32, metadata.AcquireStatus, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNs, imageAvailableSemaphore, vk.NullFence, &imageIndex)

	switch result {
	case vk.Success:
		return imageIndex, metadata.AcquireSuccess, nil
	case vk.Suboptimal:
		return imageIndex, metadata.AcquireSuboptimal, nil
	case vk.ErrorOutOfDate:
		return 0, metadata.AcquireOutOfDate, nil
	default:
		err := fmt.Errorf("failed to acquire swapchain image with result `%s`", VulkanResultString(result, true))
		core.LogError(err.Error())
		return 0, metadata.AcquireSuccess, err
	}
}

// SwapchainPresent returns the image to the swapchain for presentation,
// waiting on renderCompleteSemaphore.
func (vs *VulkanSwapchain) SwapchainPresent(context *VulkanContext, presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) (metadata.PresentStatus, error) {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
		PResults:           nil,
	}

	result := vk.QueuePresent(presentQueue, &presentInfo)
	switch result {
	case vk.Success:
		return metadata.PresentSuccess, nil
	case vk.Suboptimal:
		return metadata.PresentSuboptimal, nil
	case vk.ErrorOutOfDate:
		return metadata.PresentOutOfDate, nil
	default:
		err := fmt.Errorf("failed to present swapchain image with result `%s`", VulkanResultString(result, true))
		core.LogError(err.Error())
		return metadata.PresentSuccess, err
	}
}

func createSwapchain(context *VulkanContext, width, height uint32, vsync bool) (*VulkanSwapchain, error) {
	swapchain := &VulkanSwapchain{
		vsync: vsync,
	}

	swapchainExtent := vk.Extent2D{
		Width:  width,
		Height: height,
	}

	// Choose a swap surface format.
	found := false
	for i := 0; i < int(context.Device.SwapchainSupport.FormatCount); i++ {
		format := context.Device.SwapchainSupport.Formats[i]
		// Preferred format
		if format.Format == vk.FormatB8g8r8a8Srgb &&
			format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			swapchain.ImageFormat = format
			found = true
			break
		}
	}
	if !found {
		swapchain.ImageFormat = context.Device.SwapchainSupport.Formats[0]
	}

	// FIFO is always available and caps to the display rate. Mailbox
	// trades that for lower latency when vsync is off.
	presentMode := vk.PresentModeFifo
	if !vsync {
		for i := 0; i < int(context.Device.SwapchainSupport.PresentModeCount); i++ {
			mode := context.Device.SwapchainSupport.PresentModes[i]
			if mode == vk.PresentModeMailbox {
				presentMode = mode
				break
			}
		}
	}

	// Swapchain extent
	if context.Device.SwapchainSupport.Capabilities.CurrentExtent.Width != math.MaxUint32 {
		swapchainExtent = context.Device.SwapchainSupport.Capabilities.CurrentExtent
	}

	// Clamp to the value allowed by the GPU.
	min := context.Device.SwapchainSupport.Capabilities.MinImageExtent
	max := context.Device.SwapchainSupport.Capabilities.MaxImageExtent
	swapchainExtent.Width = kmath.Clamp(swapchainExtent.Width, min.Width, max.Width)
	swapchainExtent.Height = kmath.Clamp(swapchainExtent.Height, min.Height, max.Height)

	imageCount := context.Device.SwapchainSupport.Capabilities.MinImageCount + 1
	if context.Device.SwapchainSupport.Capabilities.MaxImageCount > 0 && imageCount > context.Device.SwapchainSupport.Capabilities.MaxImageCount {
		imageCount = context.Device.SwapchainSupport.Capabilities.MaxImageCount
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
	}

	// Setup the queue family indices
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		queueFamilyIndices := []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = queueFamilyIndices
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
		swapchainCreateInfo.QueueFamilyIndexCount = 0
		swapchainCreateInfo.PQueueFamilyIndices = nil
	}

	swapchainCreateInfo.PreTransform = context.Device.SwapchainSupport.Capabilities.CurrentTransform
	swapchainCreateInfo.CompositeAlpha = vk.CompositeAlphaOpaqueBit
	swapchainCreateInfo.PresentMode = presentMode
	swapchainCreateInfo.Clipped = vk.True
	swapchainCreateInfo.OldSwapchain = nil

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		err := fmt.Errorf("failed to create swapchain with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = swapchainHandle
	swapchain.Extent = swapchainExtent

	// Images. The driver may give out more than the requested minimum.
	swapchain.ImageCount = 0
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		err := fmt.Errorf("failed to get swapchain images")
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	swapchain.Views = make([]vk.ImageView, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		err := fmt.Errorf("failed to get swapchain images")
		core.LogError(err.Error())
		return nil, err
	}

	// Views
	for i := 0; i < int(swapchain.ImageCount); i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &swapchain.Views[i]); res != vk.Success {
			err := fmt.Errorf("failed to create image view")
			core.LogError(err.Error())
			return nil, err
		}
	}

	core.LogInfo("Swapchain created successfully: %dx%d, %d image(s).", swapchainExtent.Width, swapchainExtent.Height, swapchain.ImageCount)

	return swapchain, nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	for i := 0; i < int(vs.ImageCount); i++ {
		if vs.Framebuffers != nil && vs.Framebuffers[i] != nil {
			vs.Framebuffers[i].Destroy(context)
		}
	}
	vs.Framebuffers = nil

	// Only destroy the views, not the images, since those are owned by the
	// swapchain and are thus destroyed when it is.
	for i := 0; i < int(vs.ImageCount); i++ {
		vk.DestroyImageView(context.Device.LogicalDevice, vs.Views[i], context.Allocator)
	}

	vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
	vs.Handle = nil
}
