package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "stream", "streams"), ShouldEqual, "1 stream")
		So(Quantify(2, "stream", "streams"), ShouldEqual, "2 streams")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/movie.mkv"), ShouldEqual, "movie")
		So(FileStem("movie"), ShouldEqual, "movie")
	})
}

func TestFormatTimestamp(t *testing.T) {
	Convey("FormatTimestamp", t, func() {
		So(FormatTimestamp(0), ShouldEqual, "0:00")
		So(FormatTimestamp(65.4), ShouldEqual, "1:05")
		So(FormatTimestamp(3725), ShouldEqual, "1:02:05")
		So(FormatTimestamp(-3), ShouldEqual, "0:00")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(5.0, 0.0, 4.0), ShouldEqual, 4.0)
		So(Clamp(-1.0, 0.0, 4.0), ShouldEqual, 0.0)
		So(Clamp(2.5, 0.0, 4.0), ShouldEqual, 2.5)
	})
}
