package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/quadro/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool

	context   *VulkanContext
	trackerID uuid.UUID
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
		context:    context,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var pFence vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &pFence); res != vk.Success {
		err := fmt.Errorf("failed to create fence")
		core.LogError(err.Error())
		return nil, err
	}
	fence.Handle = pFence
	fence.trackerID = context.Tracker.Acquire("fence")
	return fence, nil
}

func (vf *VulkanFence) Destroy() {
	if vf.Handle != nil {
		vk.DestroyFence(vf.context.Device.LogicalDevice, vf.Handle, vf.context.Allocator)
		vf.Handle = nil
		vf.context.Tracker.Release(vf.trackerID)
	}
	vf.IsSignaled = false
}

func (vf *VulkanFence) Wait(timeoutNs uint64) error {
	// If already signaled, do not wait.
	if vf.IsSignaled {
		return nil
	}

	result := vk.WaitForFences(vf.context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	if result == vk.Success {
		vf.IsSignaled = true
		return nil
	}

	err := fmt.Errorf("fence wait failed with result `%s`", VulkanResultString(result, true))
	core.LogError(err.Error())
	return err
}

func (vf *VulkanFence) Reset() error {
	if vf.IsSignaled {
		if res := vk.ResetFences(vf.context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
			err := fmt.Errorf("failed to reset fence")
			core.LogError(err.Error())
			return err
		}
		vf.IsSignaled = false
	}
	return nil
}
