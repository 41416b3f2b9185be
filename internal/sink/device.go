package sink

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/beni69/csengo/internal/errors"
	"github.com/beni69/csengo/internal/logging"
	"github.com/beni69/csengo/internal/observability/metrics"
)

// DeviceInfo holds information about an audio playback device.
type DeviceInfo struct {
	Index     int
	Name      string
	ID        string
	IsDefault bool
}

// Device owns the OS audio output stream. It is a process-lifetime resource:
// opened once during startup and released at shutdown, so it outlives every
// producer that appends to the sink.
type Device struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

// backendForPlatform returns the malgo backend for the current platform.
func backendForPlatform() (malgo.Backend, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, errors.New(nil).
			Component("sink").
			Category(errors.CategoryAudio).
			Context("error", "unsupported operating system").
			Context("os", runtime.GOOS).
			Build()
	}
}

// OpenDevice initializes the playback device and starts pulling samples from
// the sink on malgo's dedicated audio thread. deviceName selects an output
// by name or decoded ID; empty or "default" picks the system default. A
// failure here is fatal for the server: there is nothing to play through.
func OpenDevice(s *Sink, deviceName string, m *metrics.PlaybackMetrics) (*Device, error) {
	logger := logging.ForService("sink")

	backend, err := backendForPlatform()
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		if m != nil {
			m.RecordAudioError()
		}
		return nil, errors.New(err).
			Component("sink").
			Category(errors.CategoryAudio).
			Context("operation", "init_context").
			Build()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 2
	deviceConfig.SampleRate = uint32(SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if deviceName != "" && deviceName != "default" {
		infos, err := ctx.Devices(malgo.Playback)
		if err != nil {
			_ = ctx.Uninit()
			return nil, errors.New(err).
				Component("sink").
				Category(errors.CategoryAudio).
				Context("operation", "enumerate_devices").
				Build()
		}
		selected, err := selectPlaybackDevice(infos, deviceName)
		if err != nil {
			_ = ctx.Uninit()
			return nil, err
		}
		deviceConfig.Playback.DeviceID = selected.ID.Pointer()
		logger.Info("selected output device", "name", selected.Name())
	}

	// scratch buffer reused across callbacks; grown on demand
	var scratch [][2]float64

	onSendFrames := func(pOutput, pInput []byte, frameCount uint32) {
		n := int(frameCount)
		if cap(scratch) < n {
			scratch = make([][2]float64, n)
		}
		buf := scratch[:n]
		s.Stream(buf)
		for i := range buf {
			l := math.Float32bits(float32(buf[i][0]))
			r := math.Float32bits(float32(buf[i][1]))
			binary.LittleEndian.PutUint32(pOutput[i*8:], l)
			binary.LittleEndian.PutUint32(pOutput[i*8+4:], r)
		}
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSendFrames,
	})
	if err != nil {
		_ = ctx.Uninit()
		if m != nil {
			m.RecordAudioError()
		}
		return nil, errors.New(err).
			Component("sink").
			Category(errors.CategoryAudio).
			Context("operation", "init_device").
			Context("device", deviceName).
			Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		if m != nil {
			m.RecordAudioError()
		}
		return nil, errors.New(err).
			Component("sink").
			Category(errors.CategoryAudio).
			Context("operation", "start_device").
			Build()
	}

	logger.Info("audio output started", "backend", backend, "sample_rate", SampleRate)
	return &Device{ctx: ctx, device: device}, nil
}

// Close stops the output stream and releases the audio context.
func (d *Device) Close() {
	if d.device != nil {
		d.device.Uninit()
	}
	if d.ctx != nil {
		_ = d.ctx.Uninit()
	}
}

// EnumerateDevices returns the available audio playback devices.
func EnumerateDevices() ([]DeviceInfo, error) {
	backend, err := backendForPlatform()
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("sink").
			Category(errors.CategoryAudio).
			Context("operation", "init_context").
			Build()
	}
	defer func() { _ = ctx.Uninit() }()

	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, errors.New(err).
			Component("sink").
			Category(errors.CategoryAudio).
			Context("operation", "enumerate_devices").
			Build()
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i := range infos {
		decodedID, err := hexToASCII(infos[i].ID.String())
		if err != nil {
			decodedID = infos[i].ID.String()
		}
		devices = append(devices, DeviceInfo{
			Index:     i,
			Name:      infos[i].Name(),
			ID:        decodedID,
			IsDefault: infos[i].IsDefault == 1,
		})
	}
	return devices, nil
}

// selectPlaybackDevice finds a device matching the given name or decoded ID,
// falling back to a partial name match.
func selectPlaybackDevice(infos []malgo.DeviceInfo, deviceName string) (*malgo.DeviceInfo, error) {
	for i := range infos {
		if infos[i].Name() == deviceName {
			return &infos[i], nil
		}
	}
	for i := range infos {
		decodedID, err := hexToASCII(infos[i].ID.String())
		if err == nil && decodedID == deviceName {
			return &infos[i], nil
		}
	}
	for i := range infos {
		if strings.Contains(infos[i].Name(), deviceName) {
			return &infos[i], nil
		}
	}
	return nil, errors.New(nil).
		Component("sink").
		Category(errors.CategoryAudio).
		Context("device_name", deviceName).
		Context("available_devices", len(infos)).
		Context("error", "no matching audio device found").
		Build()
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
