package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/quadro/engine/core"
)

type VulkanSemaphore struct {
	Handle vk.Semaphore

	context   *VulkanContext
	trackerID uuid.UUID
}

func NewSemaphore(context *VulkanContext) (*VulkanSemaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var pSemaphore vk.Semaphore
	if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &pSemaphore); res != vk.Success {
		err := fmt.Errorf("failed to create semaphore")
		core.LogError(err.Error())
		return nil, err
	}

	return &VulkanSemaphore{
		Handle:    pSemaphore,
		context:   context,
		trackerID: context.Tracker.Acquire("semaphore"),
	}, nil
}

func (vs *VulkanSemaphore) Destroy() {
	if vs.Handle != vk.NullSemaphore {
		vk.DestroySemaphore(vs.context.Device.LogicalDevice, vs.Handle, vs.context.Allocator)
		vs.Handle = vk.NullSemaphore
		vs.context.Tracker.Release(vs.trackerID)
	}
}
