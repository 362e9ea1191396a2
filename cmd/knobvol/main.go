//go:build windows

// knobvol drives Windows audio endpoints from a knob deck on USB
// serial. Each knob maps to an endpoint device: deck frames set the
// endpoint volume, and current volumes are pushed back so the deck's
// bars track reality.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/dikkadev/prettyslog"
	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
	"go.bug.st/serial"
	"gopkg.in/yaml.v2"

	"detent/protocol"
)

type KnobConfig struct {
	Knob     uint8  `yaml:"knob"`
	DeviceID string `yaml:"deviceID"`
}

type Config struct {
	PortName           string        `yaml:"portName"`
	BaudRate           int           `yaml:"baudRate"`
	Knobs              []KnobConfig  `yaml:"knobs"`
	ConfigReloadPeriod time.Duration `yaml:"configReloadPeriod"`
	SetLevelPeriod     time.Duration `yaml:"setLevelPeriod"`
}

var (
	config     Config
	configFile = "config.yaml"
	configLock sync.RWMutex
	oleLock    sync.Mutex

	mmde     *wca.IMMDeviceEnumerator
	mmdeOnce sync.Once

	writeChan    = make(chan *protocol.Frame, 100)
	shutdownChan = make(chan struct{})
)

// loadConfig replaces the running config with the file's content. On a
// read or parse failure the previous config stays; either way the
// defaults below are enforced so the tickers never get a zero period.
func loadConfig() {
	configLock.Lock()
	defer configLock.Unlock()

	if data, err := os.ReadFile(configFile); err != nil {
		slog.Warn("error reading config file", "err", err)
	} else {
		var newConfig Config
		if err := yaml.UnmarshalStrict(data, &newConfig); err != nil {
			slog.Warn("error parsing config file", "err", err)
		} else {
			config = newConfig
			slog.Info("configuration reloaded")
		}
	}

	if config.BaudRate == 0 {
		config.BaudRate = 115200
	}
	if config.ConfigReloadPeriod <= 0 {
		config.ConfigReloadPeriod = 30 * time.Second
	}
	if config.SetLevelPeriod <= 0 {
		config.SetLevelPeriod = 5 * time.Minute
	}
}

func getKnobConfig(knob uint8) (KnobConfig, bool) {
	configLock.RLock()
	defer configLock.RUnlock()

	for _, k := range config.Knobs {
		if k.Knob == knob {
			return k, true
		}
	}
	return KnobConfig{}, false
}

func getCurrentVolume(deviceID string) (uint8, error) {
	vol, err := oleInvoke(deviceID, func(aev *wca.IAudioEndpointVolume) (interface{}, error) {
		var level float32
		if err := aev.GetMasterVolumeLevelScalar(&level); err != nil {
			return nil, err
		}
		return uint8(level * 100.0), nil
	})
	if err != nil {
		return 0, err
	}
	return vol.(uint8), nil
}

func setVolume(deviceID string, level uint8) error {
	_, err := oleInvoke(deviceID, func(aev *wca.IAudioEndpointVolume) (interface{}, error) {
		if err := aev.SetMasterVolumeLevelScalar(float32(level)/100.0, nil); err != nil {
			return nil, fmt.Errorf("SetMasterVolumeLevelScalar failed: %w", err)
		}
		return nil, nil
	})
	return err
}

func getDeviceEnumerator() (*wca.IMMDeviceEnumerator, error) {
	var err error
	mmdeOnce.Do(func() {
		err = wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &mmde)
		if err != nil {
			slog.Error("failed to create IMMDeviceEnumerator", "err", err)
		}
	})
	return mmde, err
}

func oleInvoke(deviceID string, f func(aev *wca.IAudioEndpointVolume) (interface{}, error)) (interface{}, error) {
	oleLock.Lock()
	defer oleLock.Unlock()

	mmde, err := getDeviceEnumerator()
	if err != nil {
		return nil, err
	}

	var mmd *wca.IMMDevice
	if err = mmde.GetDevice(deviceID, &mmd); err != nil {
		return nil, fmt.Errorf("GetDevice failed: %w", err)
	}
	defer mmd.Release()

	var aev *wca.IAudioEndpointVolume
	if err = mmd.Activate(wca.IID_IAudioEndpointVolume, wca.CLSCTX_ALL, nil, &aev); err != nil {
		return nil, fmt.Errorf("Activate IAudioEndpointVolume failed: %w", err)
	}
	defer aev.Release()

	return f(aev)
}

func handleFrame(f *protocol.Frame) {
	slog.Info("received frame", "frame", f.String())

	if f.Action == protocol.SetLevel {
		// Our own push echoed back; nothing to do.
		return
	}

	knobConfig, ok := getKnobConfig(f.Knob)
	if !ok {
		slog.Warn("no configuration found for knob", "knob", f.Knob)
		return
	}

	level := f.Level
	if level > 100 {
		level = 100
	}

	if err := setVolume(knobConfig.DeviceID, level); err != nil {
		slog.Error("error setting volume", "deviceID", knobConfig.DeviceID, "err", err)
	} else {
		slog.Info("set volume", "level", level, "deviceID", knobConfig.DeviceID)
	}
}

func configReloader() {
	configLock.RLock()
	period := config.ConfigReloadPeriod
	configLock.RUnlock()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			loadConfig()
		case <-shutdownChan:
			slog.Info("configuration reloader shutting down")
			return
		}
	}
}

// setLevelSender pushes the endpoints' current volumes to the deck at
// startup and then periodically, so manual volume changes on the host
// show up on the bars.
func setLevelSender() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		log.Fatalf("failed to initialize COM in setLevelSender: %v", err)
	}
	defer ole.CoUninitialize()

	sendSetFrames := func() {
		slog.Info("pushing current volumes to the deck")
		configLock.RLock()
		knobs := config.Knobs
		configLock.RUnlock()

		for _, k := range knobs {
			level, err := getCurrentVolume(k.DeviceID)
			if err != nil {
				slog.Error("error getting current volume", "deviceID", k.DeviceID, "err", err)
				continue
			}

			select {
			case writeChan <- protocol.NewSetFrame(k.Knob, level):
			case <-shutdownChan:
				return
			}
		}
	}

	sendSetFrames()

	configLock.RLock()
	period := config.SetLevelPeriod
	configLock.RUnlock()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sendSetFrames()
		case <-shutdownChan:
			slog.Info("set level sender shutting down")
			return
		}
	}
}

func serialWriter(port serial.Port) {
	for {
		select {
		case frame := <-writeChan:
			buf := frame.Marshal()
			if _, err := port.Write(buf[:]); err != nil {
				slog.Error("serial write failed", "err", err)
			}
		case <-shutdownChan:
			return
		}
	}
}

func serialReader(port serial.Port) {
	var scan protocol.Scanner
	buf := make([]byte, 64)

	for {
		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-shutdownChan:
			default:
				slog.Error("serial read failed", "err", err)
			}
			return
		}
		for _, b := range buf[:n] {
			frame, err := scan.Feed(b)
			if err != nil {
				slog.Warn("bad frame", "err", err)
				continue
			}
			if frame != nil {
				handleFrame(frame)
			}
		}
	}
}

func main() {
	logger := slog.New(prettyslog.NewPrettyslogHandler("knobvol",
		prettyslog.WithLevel(slog.LevelDebug),
	))
	slog.SetDefault(logger)

	portName := flag.String("port", "", "serial port name (e.g., COM3)")
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if *configPath != "" {
		configFile = *configPath
	}
	loadConfig()

	if *portName != "" {
		configLock.Lock()
		config.PortName = *portName
		configLock.Unlock()
	}
	if config.PortName == "" {
		log.Fatal("no serial port specified. use the -port flag or portName in the config")
	}

	port, err := serial.Open(config.PortName, &serial.Mode{BaudRate: config.BaudRate})
	if err != nil {
		log.Fatalf("open serial port %s: %v", config.PortName, err)
	}
	defer port.Close()

	go configReloader()
	go setLevelSender()
	go serialWriter(port)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
			log.Fatalf("failed to initialize COM in serial reader: %v", err)
		}
		defer ole.CoUninitialize()

		serialReader(port)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	slog.Info("application is running. press Ctrl+C to exit")
	<-sigs
	slog.Info("interrupt signal received. initiating shutdown")

	close(shutdownChan)

	time.Sleep(1 * time.Second)
	slog.Info("application terminated gracefully")
}
