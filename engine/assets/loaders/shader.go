package loaders

import (
	"encoding/binary"
	"fmt"
	"os"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic uint32 = 0x07230203

// ShaderLoader reads compiled SPIR-V shader modules from disk.
type ShaderLoader struct{}

// Load reads the module at path and validates it is plausible SPIR-V.
func (sl *ShaderLoader) Load(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read shader module '%s': %w", path, err)
	}
	if len(code) < 4 || len(code)%4 != 0 {
		return nil, fmt.Errorf("shader module '%s' has invalid size %d (not a multiple of 4)", path, len(code))
	}
	if binary.LittleEndian.Uint32(code[:4]) != spirvMagic {
		return nil, fmt.Errorf("shader module '%s' is missing the SPIR-V magic number", path)
	}
	return code, nil
}
