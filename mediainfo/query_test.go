package mediainfo

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFindAudioByQuery(t *testing.T) {
	Convey("Given a container with several audio tracks", t, func() {
		streams := []AudioStream{
			{Index: 1, Language: "eng", Title: "English 5.1"},
			{Index: 2, Language: "jpn", Title: "Japanese"},
			{Index: 3, Language: "fra", Title: "Commentary"},
		}

		Convey("An exact language tag matches", func() {
			So(FindAudioByQuery(streams, "jpn").MustGet(), ShouldEqual, 2)
		})

		Convey("A partial title matches case-insensitively", func() {
			So(FindAudioByQuery(streams, "commentary").MustGet(), ShouldEqual, 3)
		})

		Convey("An unmatched query returns none", func() {
			So(FindAudioByQuery(streams, "zzz").IsAbsent(), ShouldBeTrue)
		})

		Convey("An empty query returns none", func() {
			So(FindAudioByQuery(streams, "  ").IsAbsent(), ShouldBeTrue)
		})
	})
}
