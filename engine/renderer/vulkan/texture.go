package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/quadro/engine/core"
)

// VulkanTexture is a sampled 2D image with its view and sampler, uploaded
// from RGBA8 pixel data through a staging buffer.
type VulkanTexture struct {
	Handle  vk.Image
	Memory  vk.DeviceMemory
	View    vk.ImageView
	Sampler vk.Sampler
	Width   uint32
	Height  uint32

	trackerID uuid.UUID
}

func TextureCreate(context *VulkanContext, pixels []byte, width, height uint32) (*VulkanTexture, error) {
	if uint32(len(pixels)) != width*height*4 {
		err := fmt.Errorf("texture pixel data is %d bytes, want %d for %dx%d RGBA", len(pixels), width*height*4, width, height)
		core.LogError(err.Error())
		return nil, err
	}

	texture := &VulkanTexture{
		Width:  width,
		Height: height,
	}

	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        vk.FormatR8g8b8a8Srgb,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) | vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	var pImage vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageInfo, context.Allocator, &pImage); res != vk.Success {
		err := fmt.Errorf("failed to create texture image with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	texture.Handle = pImage

	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, texture.Handle, &memRequirements)
	memRequirements.Deref()

	memoryIndex := context.FindMemoryIndex(memRequirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryIndex < 0 {
		err := fmt.Errorf("no suitable memory type for texture image")
		core.LogError(err.Error())
		return nil, err
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}

	var pMemory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocInfo, context.Allocator, &pMemory); res != vk.Success {
		err := fmt.Errorf("failed to allocate texture image memory with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	texture.Memory = pMemory

	if res := vk.BindImageMemory(context.Device.LogicalDevice, texture.Handle, texture.Memory, 0); res != vk.Success {
		err := fmt.Errorf("failed to bind texture image memory with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}

	if err := texture.upload(context, pixels); err != nil {
		return nil, err
	}

	// View
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    texture.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   vk.FormatR8g8b8a8Srgb,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var pView vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &pView); res != vk.Success {
		err := fmt.Errorf("failed to create texture image view with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	texture.View = pView

	// Sampler
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           context.Device.Properties.Limits.MaxSamplerAnisotropy,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}
	var pSampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &pSampler); res != vk.Success {
		err := fmt.Errorf("failed to create texture sampler with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	texture.Sampler = pSampler

	texture.trackerID = context.Tracker.Acquire("texture")
	core.LogDebug("Texture created: %dx%d", width, height)
	return texture, nil
}

// upload stages the pixel data into the image and leaves it in the
// shader-read-only layout.
func (vt *VulkanTexture) upload(context *VulkanContext, pixels []byte) error {
	staging, err := BufferCreate(
		context,
		vk.DeviceSize(len(pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, pixels); err != nil {
		return err
	}

	if err := vt.transitionLayout(context, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}
	if err := vt.copyFromBuffer(context, staging); err != nil {
		return err
	}
	return vt.transitionLayout(context, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
}

func (vt *VulkanTexture) transitionLayout(context *VulkanContext, oldLayout, newLayout vk.ImageLayout) error {
	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vt.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var sourceStage, destinationStage vk.PipelineStageFlags

	if oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal {
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		destinationStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	} else if oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal {
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		sourceStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		destinationStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	} else {
		err := fmt.Errorf("unsupported image layout transition")
		core.LogError(err.Error())
		return err
	}
	barrier.Deref()

	vk.CmdPipelineBarrier(
		cb.Handle,
		sourceStage, destinationStage,
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier},
	)

	return cb.EndSingleUse(context.Device.GraphicsQueue)
}

func (vt *VulkanTexture) copyFromBuffer(context *VulkanContext, buffer *VulkanBuffer) error {
	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}

	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{
			Width:  vt.Width,
			Height: vt.Height,
			Depth:  1,
		},
	}

	vk.CmdCopyBufferToImage(
		cb.Handle,
		buffer.Handle,
		vt.Handle,
		vk.ImageLayoutTransferDstOptimal,
		1,
		[]vk.BufferImageCopy{region},
	)

	return cb.EndSingleUse(context.Device.GraphicsQueue)
}

func (vt *VulkanTexture) Destroy(context *VulkanContext) {
	if vt.Sampler != vk.NullSampler {
		vk.DestroySampler(context.Device.LogicalDevice, vt.Sampler, context.Allocator)
		vt.Sampler = vk.NullSampler
	}
	if vt.View != vk.NullImageView {
		vk.DestroyImageView(context.Device.LogicalDevice, vt.View, context.Allocator)
		vt.View = vk.NullImageView
	}
	if vt.Handle != vk.NullImage {
		vk.DestroyImage(context.Device.LogicalDevice, vt.Handle, context.Allocator)
		vt.Handle = vk.NullImage
		context.Tracker.Release(vt.trackerID)
	}
	if vt.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vt.Memory, context.Allocator)
		vt.Memory = vk.NullDeviceMemory
	}
}
