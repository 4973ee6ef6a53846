package malgo

import (
	"fmt"

	lib "github.com/gen2brain/malgo"

	"github.com/translive/translive/pkg/audio"
)

// ListDevices enumerates the capture devices visible to miniaudio. The
// returned list is a snapshot; devices may appear or disappear afterwards.
func ListDevices() ([]audio.Device, error) {
	mctx, err := lib.InitContext(nil, lib.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: init context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	infos, err := mctx.Devices(lib.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo: enumerate capture devices: %w", err)
	}

	devices := make([]audio.Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, audio.Device{
			ID:      fmt.Sprintf("%x", info.ID[:8]),
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		})
	}
	return devices, nil
}

// findDeviceID resolves a device name to its miniaudio device ID.
func findDeviceID(mctx *lib.AllocatedContext, name string) (lib.DeviceID, error) {
	infos, err := mctx.Devices(lib.Capture)
	if err != nil {
		return lib.DeviceID{}, fmt.Errorf("malgo: enumerate capture devices: %w", err)
	}
	for _, info := range infos {
		if info.Name() == name {
			return info.ID, nil
		}
	}
	return lib.DeviceID{}, &audio.DeviceError{
		Device: name,
		Err:    fmt.Errorf("capture device not found"),
	}
}
