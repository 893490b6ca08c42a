package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/quadro/engine/core"
)

// VulkanShaderStage is a single compiled shader stage.
type VulkanShaderStage struct {
	Handle                vk.ShaderModule
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderModule creates a shader module from SPIR-V bytes. The loader has
// already validated magic and alignment; here the bytes are repacked into
// the 32-bit words the API wants.
func NewShaderModule(context *VulkanContext, code []byte, stageFlag vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		err := fmt.Errorf("shader byte code size %d is not a multiple of 4", len(code))
		core.LogError(err.Error())
		return nil, err
	}

	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}

	stage := &VulkanShaderStage{}
	if res := vk.CreateShaderModule(
		context.Device.LogicalDevice,
		&createInfo,
		context.Allocator,
		&stage.Handle); res != vk.Success {
		err := fmt.Errorf("failed to create shader module with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}

	stage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stageFlag,
		Module: stage.Handle,
		PName:  VulkanSafeString("main"),
	}

	return stage, nil
}

func (vss *VulkanShaderStage) Destroy(context *VulkanContext) {
	if vss.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, vss.Handle, context.Allocator)
		vss.Handle = vk.NullShaderModule
	}
}
