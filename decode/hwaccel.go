package decode

import (
	"runtime"

	"github.com/asticode/go-astiav"
	"github.com/kinoray-player/kinoray/key"
	"github.com/kinoray-player/kinoray/log"
	"github.com/spf13/viper"
)

// hardwareChain returns the device type names to probe, most preferred first.
// An explicit order from configuration wins over the platform default.
func hardwareChain() []string {
	if order := viper.GetStringSlice(key.HwaccelOrder); len(order) > 0 {
		return order
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{"videotoolbox"}
	case "windows":
		return []string{"d3d11va", "qsv", "cuda"}
	default:
		return []string{"vaapi", "cuda", "qsv"}
	}
}

// initHardware walks the device chain and attaches the first device context the
// codec advertises support for. Failure is never fatal; the decoder simply stays
// on the software path.
func (d *VideoDecoder) initHardware(codec *astiav.Codec) {
	for _, name := range hardwareChain() {
		ht := astiav.FindHardwareDeviceTypeByName(name)
		if ht == astiav.HardwareDeviceTypeNone {
			continue
		}

		var pixFmt astiav.PixelFormat
		found := false
		for _, cfg := range codec.HardwareConfigs() {
			if cfg.MethodFlags().Has(astiav.CodecHardwareConfigMethodFlagHwDeviceCtx) && cfg.HardwareDeviceType() == ht {
				pixFmt = cfg.PixelFormat()
				found = true
				break
			}
		}
		if !found {
			continue
		}

		hw, err := astiav.CreateHardwareDeviceContext(ht, "", nil, 0)
		if err != nil {
			log.Debugf("decode: hardware device %s unavailable: %v", name, err)
			continue
		}

		d.hw = hw
		d.hwPixFmt = pixFmt
		d.cc.SetHardwareDeviceContext(hw)
		d.cc.SetPixelFormatCallback(func(pfs []astiav.PixelFormat) astiav.PixelFormat {
			for _, pf := range pfs {
				if pf == pixFmt {
					return pf
				}
			}
			log.Debug("decode: hardware pixel format rejected mid-stream")
			return astiav.PixelFormatNone
		})
		d.usingHW = true
		log.Infof("decode: using hardware acceleration %s", name)
		return
	}
}
