package gpu

import (
	"errors"
	"fmt"
)

// Result is a driver status code. Values match VkResult.
type Result int32

const (
	Success                    Result = 0
	NotReady                   Result = 1
	Timeout                    Result = 2
	EventSet                   Result = 3
	EventReset                 Result = 4
	Incomplete                 Result = 5
	ErrorOutOfHostMemory       Result = -1
	ErrorOutOfDeviceMemory     Result = -2
	ErrorInitializationFailed  Result = -3
	ErrorDeviceLost            Result = -4
	ErrorMemoryMapFailed       Result = -5
	ErrorLayerNotPresent       Result = -6
	ErrorExtensionNotPresent   Result = -7
	ErrorFeatureNotPresent     Result = -8
	ErrorIncompatibleDriver    Result = -9
	ErrorTooManyObjects        Result = -10
	ErrorFormatNotSupported    Result = -11
	ErrorFragmentedPool        Result = -12
	ErrorUnknown               Result = -13
	ErrorOutOfPoolMemory       Result = -1000069000
	ErrorInvalidExternalHandle Result = -1000072003
	ErrorFragmentation         Result = -1000161000
	ErrorInvalidDeviceAddress  Result = -1000257000
	ErrorSurfaceLost           Result = -1000000000
	ErrorNativeWindowInUse     Result = -1000000001
	Suboptimal                 Result = 1000001003
	ErrorOutOfDate             Result = -1000001004
	ErrorIncompatibleDisplay   Result = -1000003001
	ErrorValidationFailed      Result = -1000011001
	ThreadIdle                 Result = 1000268000
	ThreadDone                 Result = 1000268001
	OperationDeferred          Result = 1000268002
	OperationNotDeferred       Result = 1000268003
	PipelineCompileRequired    Result = 1000297000
)

func (r Result) String() string {
	return ResultString(r, false)
}

// IsSuccess reports whether r is one of the non error codes.
func (r Result) IsSuccess() bool {
	switch r {
	case Success, NotReady, Timeout, EventSet, EventReset, Incomplete, Suboptimal,
		ThreadIdle, ThreadDone, OperationDeferred, OperationNotDeferred, PipelineCompileRequired:
		return true
	}
	return false
}

// ResultString returns the symbolic name of result, followed by its meaning
// when getExtended is set.
func ResultString(result Result, getExtended bool) string {
	// From: https://www.khronos.org/registry/vulkan/specs/1.3-extensions/man/html/VkResult.html
	switch result {
	case Success:
		return conditional(!getExtended, "VK_SUCCESS", "VK_SUCCESS Command successfully completed")
	case NotReady:
		return conditional(!getExtended, "VK_NOT_READY", "VK_NOT_READY A fence or query has not yet completed")
	case Timeout:
		return conditional(!getExtended, "VK_TIMEOUT", "VK_TIMEOUT A wait operation has not completed in the specified time")
	case EventSet:
		return conditional(!getExtended, "VK_EVENT_SET", "VK_EVENT_SET An event is signaled")
	case EventReset:
		return conditional(!getExtended, "VK_EVENT_RESET", "VK_EVENT_RESET An event is unsignaled")
	case Incomplete:
		return conditional(!getExtended, "VK_INCOMPLETE", "VK_INCOMPLETE A return array was too small for the result")
	case Suboptimal:
		return conditional(!getExtended, "VK_SUBOPTIMAL_KHR", "VK_SUBOPTIMAL_KHR A swapchain no longer matches the surface properties exactly, but can still be used to present to the surface successfully.")
	case ThreadIdle:
		return conditional(!getExtended, "VK_THREAD_IDLE_KHR", "VK_THREAD_IDLE_KHR A deferred operation is not complete but there is currently no work for this thread to do at the time of this call.")
	case ThreadDone:
		return conditional(!getExtended, "VK_THREAD_DONE_KHR", "VK_THREAD_DONE_KHR A deferred operation is not complete but there is no work remaining to assign to additional threads.")
	case OperationDeferred:
		return conditional(!getExtended, "VK_OPERATION_DEFERRED_KHR", "VK_OPERATION_DEFERRED_KHR A deferred operation was requested and at least some of the work was deferred.")
	case OperationNotDeferred:
		return conditional(!getExtended, "VK_OPERATION_NOT_DEFERRED_KHR", "VK_OPERATION_NOT_DEFERRED_KHR A deferred operation was requested and no operations were deferred.")
	case PipelineCompileRequired:
		return conditional(!getExtended, "VK_PIPELINE_COMPILE_REQUIRED_EXT", "VK_PIPELINE_COMPILE_REQUIRED_EXT A requested pipeline creation would have required compilation, but the application requested compilation to not be performed.")

	// Error codes
	case ErrorOutOfHostMemory:
		return conditional(!getExtended, "VK_ERROR_OUT_OF_HOST_MEMORY", "VK_ERROR_OUT_OF_HOST_MEMORY A host memory allocation has failed.")
	case ErrorOutOfDeviceMemory:
		return conditional(!getExtended, "VK_ERROR_OUT_OF_DEVICE_MEMORY", "VK_ERROR_OUT_OF_DEVICE_MEMORY A device memory allocation has failed.")
	case ErrorInitializationFailed:
		return conditional(!getExtended, "VK_ERROR_INITIALIZATION_FAILED", "VK_ERROR_INITIALIZATION_FAILED Initialization of an object could not be completed for implementation-specific reasons.")
	case ErrorDeviceLost:
		return conditional(!getExtended, "VK_ERROR_DEVICE_LOST", "VK_ERROR_DEVICE_LOST The logical or physical device has been lost.")
	case ErrorMemoryMapFailed:
		return conditional(!getExtended, "VK_ERROR_MEMORY_MAP_FAILED", "VK_ERROR_MEMORY_MAP_FAILED Mapping of a memory object has failed.")
	case ErrorLayerNotPresent:
		return conditional(!getExtended, "VK_ERROR_LAYER_NOT_PRESENT", "VK_ERROR_LAYER_NOT_PRESENT A requested layer is not present or could not be loaded.")
	case ErrorExtensionNotPresent:
		return conditional(!getExtended, "VK_ERROR_EXTENSION_NOT_PRESENT", "VK_ERROR_EXTENSION_NOT_PRESENT A requested extension is not supported.")
	case ErrorFeatureNotPresent:
		return conditional(!getExtended, "VK_ERROR_FEATURE_NOT_PRESENT", "VK_ERROR_FEATURE_NOT_PRESENT A requested feature is not supported.")
	case ErrorIncompatibleDriver:
		return conditional(!getExtended, "VK_ERROR_INCOMPATIBLE_DRIVER", "VK_ERROR_INCOMPATIBLE_DRIVER The requested version of Vulkan is not supported by the driver or is otherwise incompatible for implementation-specific reasons.")
	case ErrorTooManyObjects:
		return conditional(!getExtended, "VK_ERROR_TOO_MANY_OBJECTS", "VK_ERROR_TOO_MANY_OBJECTS Too many objects of the type have already been created.")
	case ErrorFormatNotSupported:
		return conditional(!getExtended, "VK_ERROR_FORMAT_NOT_SUPPORTED", "VK_ERROR_FORMAT_NOT_SUPPORTED A requested format is not supported on this device.")
	case ErrorFragmentedPool:
		return conditional(!getExtended, "VK_ERROR_FRAGMENTED_POOL", "VK_ERROR_FRAGMENTED_POOL A pool allocation has failed due to fragmentation of the pool's memory.")
	case ErrorSurfaceLost:
		return conditional(!getExtended, "VK_ERROR_SURFACE_LOST_KHR", "VK_ERROR_SURFACE_LOST_KHR A surface is no longer available.")
	case ErrorNativeWindowInUse:
		return conditional(!getExtended, "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "VK_ERROR_NATIVE_WINDOW_IN_USE_KHR The requested window is already in use by Vulkan or another API in a manner which prevents it from being used again.")
	case ErrorOutOfDate:
		return conditional(!getExtended, "VK_ERROR_OUT_OF_DATE_KHR", "VK_ERROR_OUT_OF_DATE_KHR A surface has changed in such a way that it is no longer compatible with the swapchain, and further presentation requests using the swapchain will fail.")
	case ErrorIncompatibleDisplay:
		return conditional(!getExtended, "VK_ERROR_INCOMPATIBLE_DISPLAY_KHR", "VK_ERROR_INCOMPATIBLE_DISPLAY_KHR The display used by a swapchain does not use the same presentable image layout, or is incompatible in a way that prevents sharing an image.")
	case ErrorValidationFailed:
		return conditional(!getExtended, "VK_ERROR_VALIDATION_FAILED_EXT", "VK_ERROR_VALIDATION_FAILED_EXT A command failed because invalid usage was detected by the implementation or a validation layer.")
	case ErrorOutOfPoolMemory:
		return conditional(!getExtended, "VK_ERROR_OUT_OF_POOL_MEMORY", "VK_ERROR_OUT_OF_POOL_MEMORY A pool memory allocation has failed.")
	case ErrorInvalidExternalHandle:
		return conditional(!getExtended, "VK_ERROR_INVALID_EXTERNAL_HANDLE", "VK_ERROR_INVALID_EXTERNAL_HANDLE An external handle is not a valid handle of the specified type.")
	case ErrorFragmentation:
		return conditional(!getExtended, "VK_ERROR_FRAGMENTATION", "VK_ERROR_FRAGMENTATION A descriptor pool creation has failed due to fragmentation.")
	case ErrorInvalidDeviceAddress:
		return conditional(!getExtended, "VK_ERROR_INVALID_OPAQUE_CAPTURE_ADDRESS", "VK_ERROR_INVALID_OPAQUE_CAPTURE_ADDRESS A buffer creation or memory allocation failed because the requested address is not available.")
	case ErrorUnknown:
		return conditional(!getExtended, "VK_ERROR_UNKNOWN", "VK_ERROR_UNKNOWN An unknown error has occurred; either the application has provided invalid input, or an implementation failure has occurred.")
	}
	return fmt.Sprintf("VkResult(%d)", int32(result))
}

func conditional(condition bool, res1, res2 string) string {
	if condition {
		return res1
	}
	return res2
}

// ResultError is returned when a driver call reports a failing status code.
type ResultError struct {
	Op     string
	Result Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s failed with %s", e.Op, ResultString(e.Result, true))
}

// NewResultError returns nil for success codes, so driver wrappers can write
// `return gpu.NewResultError("vkQueueSubmit", res)`.
func NewResultError(op string, result Result) error {
	if result.IsSuccess() {
		return nil
	}
	return &ResultError{Op: op, Result: result}
}

// ResultOf extracts the driver status code carried by err, if any.
func ResultOf(err error) (Result, bool) {
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result, true
	}
	return Success, false
}
