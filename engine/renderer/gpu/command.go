package gpu

import "fmt"

// RunOneShot allocates a command buffer, records it with record, submits it
// to the graphics queue and waits for the queue to drain before freeing it.
func RunOneShot(commands CommandDevice, record func(cb CommandBuffer) error) error {
	cb, err := commands.AllocateCommandBuffer()
	if err != nil {
		return fmt.Errorf("allocate one-shot command buffer: %w", err)
	}
	defer commands.FreeCommandBuffer(cb)

	if err := commands.BeginCommandBuffer(cb, true); err != nil {
		return fmt.Errorf("begin one-shot command buffer: %w", err)
	}
	if err := record(cb); err != nil {
		return err
	}
	if err := commands.EndCommandBuffer(cb); err != nil {
		return fmt.Errorf("end one-shot command buffer: %w", err)
	}

	if err := commands.QueueSubmit(SubmitInfo{CommandBuffers: []CommandBuffer{cb}}, 0); err != nil {
		return fmt.Errorf("submit one-shot command buffer: %w", err)
	}
	// Wait for it to finish
	if err := commands.QueueWaitIdle(); err != nil {
		return fmt.Errorf("wait for one-shot command buffer: %w", err)
	}
	return nil
}

// CopyBuffer copies size bytes from src to dst and waits for completion.
func CopyBuffer(commands CommandDevice, src, dst Buffer, size DeviceSize) error {
	return RunOneShot(commands, func(cb CommandBuffer) error {
		commands.CmdCopyBuffer(cb, src, dst, size)
		return nil
	})
}
