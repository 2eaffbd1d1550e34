package playback

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/kinoray-player/kinoray/demux"
	. "github.com/smartystreets/goconvey/convey"
)

func TestErrorTaxonomy(t *testing.T) {
	Convey("Given structured playback errors", t, func() {
		Convey("Error renders kind, path, and cause", func() {
			err := newError(KindDecoding, "/media/a.mkv", errors.New("bad packet"))
			So(err.Error(), ShouldEqual, "decoding error: /media/a.mkv: bad packet")
			So(newError(KindFileNotFound, "/media/a.mkv", nil).Error(), ShouldEqual, "file not found: /media/a.mkv")
		})

		Convey("Unwrap exposes the cause to errors.Is", func() {
			cause := errors.New("cause")
			err := newError(KindRendering, "/media/a.mkv", cause)
			So(errors.Is(err, cause), ShouldBeTrue)
		})

		Convey("Open failures classify by their underlying error", func() {
			cases := map[Kind]error{
				KindFileNotFound:  fmt.Errorf("open: %w", fs.ErrNotExist),
				KindInvalidFormat: fmt.Errorf("probe: %w", demux.ErrUnreadableContainer),
				KindUnknown:       errors.New("something else"),
			}
			for kind, cause := range cases {
				So(classifyOpenError("/media/a.mkv", cause).Kind, ShouldEqual, kind)
			}
		})

		Convey("Every kind has a readable name", func() {
			for _, k := range []Kind{KindUnknown, KindFileNotFound, KindInvalidFormat, KindCodecNotSupported, KindDecoding, KindRendering, KindNetwork} {
				So(k.String(), ShouldNotEqual, "")
			}
			So(Kind(99).String(), ShouldEqual, "unknown")
		})
	})
}
