package system

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// CheckTools verifies the external render and probe engines are installed
// before any project work starts.
func CheckTools() error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", tool, err)
		}
	}
	return nil
}

// BestH264Encoder picks the fastest available H.264 encoder: hardware
// encoders when ffmpeg reports them, libx264 otherwise.
func BestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	listing := string(out)
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality returns the constant-quality value for an encoder when the
// configuration does not pin one.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		// Interpreted as a bitrate multiplier by the invocation builder.
		return 50
	case "h264_nvenc":
		return 21
	default:
		return 18
	}
}

// Host summarizes the machine the renders will run on.
type Host struct {
	Cores      int
	CPUModel   string
	TotalRAMGB float64
}

// Describe collects the host summary; fields stay zero when the platform
// probes fail.
func Describe() Host {
	h := Host{}
	if counts, err := cpu.Counts(true); err == nil {
		h.Cores = counts
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		h.CPUModel = infos[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.TotalRAMGB = float64(vm.Total) / (1 << 30)
	}
	return h
}

// String renders the host summary for startup logging.
func (h Host) String() string {
	return fmt.Sprintf("%d cores (%s), %.1f GB RAM", h.Cores, h.CPUModel, h.TotalRAMGB)
}
