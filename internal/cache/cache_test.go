package cache

import (
	"testing"
	"time"

	"github.com/kinoray-player/kinoray/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCache(t *testing.T) {
	Convey("Given a probe cache", t, func() {
		mtime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		key := GenerateKey("/films/movie.mkv", 1024, mtime)

		Convey("Keys are deterministic and identity-sensitive", func() {
			So(key, ShouldEqual, GenerateKey("/films/movie.mkv", 1024, mtime))
			So(key, ShouldNotEqual, GenerateKey("/films/movie.mkv", 1025, mtime))
			So(key, ShouldNotEqual, GenerateKey("/films/movie.mkv", 1024, mtime.Add(time.Second)))
		})

		Convey("Write then Read round-trips", func() {
			type probe struct {
				Duration float64 `json:"duration"`
			}

			So(Write(key, probe{Duration: 60}), ShouldBeNil)

			var got probe
			So(Read(key, &got), ShouldBeTrue)
			So(got.Duration, ShouldEqual, 60)
		})

		Convey("Read misses on an unknown key", func() {
			var got map[string]any
			So(Read("nope", &got), ShouldBeFalse)
		})
	})
}
