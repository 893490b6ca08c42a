package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/quadro/engine/core"
)

// VulkanBuffer pairs a buffer handle with its backing memory. Mapped is
// non-nil only for persistently mapped host-visible buffers.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
	Mapped unsafe.Pointer

	trackerID uuid.UUID
}

func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		Size: size,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var pBuffer vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &pBuffer); res != vk.Success {
		err := fmt.Errorf("failed to create buffer with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Handle = pBuffer

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memRequirements)
	memRequirements.Deref()

	memoryIndex := context.FindMemoryIndex(memRequirements.MemoryTypeBits, uint32(properties))
	if memoryIndex < 0 {
		err := fmt.Errorf("no suitable memory type for buffer")
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
		err := fmt.Errorf("failed to allocate buffer memory with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Memory = pMemory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		err := fmt.Errorf("failed to bind buffer memory with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}

	buffer.trackerID = context.Tracker.Acquire("buffer")
	return buffer, nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.Mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		vb.Mapped = nil
	}
	if vb.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = vk.NullBuffer
		context.Tracker.Release(vb.trackerID)
	}
	if vb.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = vk.NullDeviceMemory
	}
}

// Map persistently maps the buffer's memory. Only valid for host-visible
// buffers.
func (vb *VulkanBuffer) Map(context *VulkanContext) error {
	var pData unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, vb.Memory, 0, vb.Size, 0, &pData); res != vk.Success {
		err := fmt.Errorf("failed to map buffer memory with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vb.Mapped = pData
	return nil
}

// LoadData copies data into a mapped host-visible buffer.
func (vb *VulkanBuffer) LoadData(context *VulkanContext, data []byte) error {
	mapped := vb.Mapped
	if mapped == nil {
		if err := vb.Map(context); err != nil {
			return err
		}
		mapped = vb.Mapped
		defer func() {
			vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
			vb.Mapped = nil
		}()
	}
	vk.Memcopy(mapped, data)
	return nil
}

// CopyTo records and runs a one-shot transfer from this buffer into dst.
func (vb *VulkanBuffer) CopyTo(context *VulkanContext, dst *VulkanBuffer, size vk.DeviceSize) error {
	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}

	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}
	vk.CmdCopyBuffer(cb.Handle, vb.Handle, dst.Handle, 1, []vk.BufferCopy{copyRegion})

	return cb.EndSingleUse(context.Device.GraphicsQueue)
}

// uploadDeviceLocal creates a device-local buffer and fills it from data
// through a throwaway staging buffer.
func uploadDeviceLocal(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	size := vk.DeviceSize(len(data))

	staging, err := BufferCreate(
		context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, data); err != nil {
		return nil, err
	}

	deviceLocal, err := BufferCreate(
		context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)|usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
	if err != nil {
		return nil, err
	}

	if err := staging.CopyTo(context, deviceLocal, size); err != nil {
		deviceLocal.Destroy(context)
		return nil, err
	}

	return deviceLocal, nil
}

func structToBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

func sliceToBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(s[0])))
}
