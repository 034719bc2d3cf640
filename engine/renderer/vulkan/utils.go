package vulkan

import (
	"bytes"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/lumen/engine/renderer/gpu"
)

const (
	end     = "\x00"
	endChar = '\x00'
)

// VulkanSafeString returns s terminated by a NUL byte, as the bindings pass
// Go strings straight to C.
func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

// VulkanSafeStrings returns a NUL terminated copy of list.
func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}

// FindFirstZeroInByteArray returns the index of the first NUL byte in arr, or
// len(arr) when there is none.
func FindFirstZeroInByteArray(arr []byte) int {
	if i := bytes.IndexByte(arr, 0); i >= 0 {
		return i
	}
	return len(arr)
}

// cString converts a fixed size C char array to a Go string.
func cString(arr []byte) string {
	return string(arr[:FindFirstZeroInByteArray(arr)])
}

func check(op string, res vk.Result) error {
	return gpu.NewResultError(op, gpu.Result(res))
}

// missingExtensions returns the names in required that are not in available.
func missingExtensions(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[name] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
