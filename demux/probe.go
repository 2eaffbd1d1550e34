package demux

import (
	"github.com/kinoray-player/kinoray/filesystem"
	"github.com/kinoray-player/kinoray/internal/cache"
	"github.com/kinoray-player/kinoray/log"
	"github.com/kinoray-player/kinoray/mediainfo"
)

// Probe opens a container just long enough to build its MediaInfo, then closes it.
// Results are cached on disk keyed by the file's path, size, and modification time,
// so repeated probes of large unchanged files are free.
func Probe(path string) (*mediainfo.Media, error) {
	info, statErr := filesystem.API().Stat(path)
	if statErr == nil {
		var cached mediainfo.Media
		if cache.Read(cache.GenerateKey(path, info.Size(), info.ModTime()), &cached) {
			return &cached, nil
		}
	}

	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	m := d.Media()
	if statErr == nil {
		if err := cache.Write(cache.GenerateKey(path, info.Size(), info.ModTime()), m); err != nil {
			log.Warnf("demux: caching probe result: %v", err)
		}
	}
	return m, nil
}
