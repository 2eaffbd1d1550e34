package clock

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 0.05

func TestClock(t *testing.T) {
	Convey("Given a new clock", t, func() {
		c := New()

		Convey("It starts stopped at position 0 with speed 1.0", func() {
			So(c.Current(), ShouldEqual, 0)
			So(c.Running(), ShouldBeFalse)
			So(c.Speed(), ShouldEqual, 1.0)
		})

		Convey("When started, it advances with wall time", func() {
			c.Start()
			time.Sleep(100 * time.Millisecond)
			So(c.Current(), ShouldAlmostEqual, 0.1, epsilon)
		})

		Convey("When paused, it holds its position", func() {
			c.Start()
			time.Sleep(50 * time.Millisecond)
			c.Pause()
			at := c.Current()
			time.Sleep(50 * time.Millisecond)
			So(c.Current(), ShouldEqual, at)
		})

		Convey("Pause then Start resumes without a discontinuity", func() {
			c.Start()
			time.Sleep(50 * time.Millisecond)
			c.Pause()
			before := c.Current()
			c.Start()
			So(c.Current(), ShouldAlmostEqual, before, epsilon)
		})

		Convey("Stop resets to 0", func() {
			c.Start()
			time.Sleep(50 * time.Millisecond)
			c.Stop()
			So(c.Current(), ShouldEqual, 0)
			So(c.Running(), ShouldBeFalse)
		})

		Convey("Seek jumps while preserving running status", func() {
			c.Seek(42)
			So(c.Current(), ShouldEqual, 42)
			So(c.Running(), ShouldBeFalse)

			c.Start()
			c.Seek(10)
			time.Sleep(50 * time.Millisecond)
			So(c.Current(), ShouldAlmostEqual, 10.05, epsilon)
			So(c.Running(), ShouldBeTrue)
		})

		Convey("SeekRelative offsets the current position", func() {
			c.Seek(30)
			c.SeekRelative(-10)
			So(c.Current(), ShouldEqual, 20)
		})
	})
}

func TestClockSpeed(t *testing.T) {
	Convey("Given a running clock", t, func() {
		c := New()

		Convey("Time scales with the speed multiplier", func() {
			for _, speed := range []float64{0.2, 0.5, 1.0, 2.0, 4.0} {
				c.Stop()
				So(c.SetSpeed(speed), ShouldBeNil)
				c.Start()
				time.Sleep(100 * time.Millisecond)
				So(c.Current(), ShouldAlmostEqual, 0.1*speed, epsilon*speed+epsilon)
			}
		})

		Convey("A speed change does not jump the current time", func() {
			c.Start()
			time.Sleep(50 * time.Millisecond)
			before := c.Current()
			So(c.SetSpeed(4.0), ShouldBeNil)
			So(c.Current(), ShouldAlmostEqual, before, epsilon)
		})

		Convey("Out-of-range speeds are rejected", func() {
			So(c.SetSpeed(0.1), ShouldNotBeNil)
			So(c.SetSpeed(4.1), ShouldNotBeNil)
			So(c.SetSpeed(0), ShouldNotBeNil)
			So(c.Speed(), ShouldEqual, 1.0)
		})
	})
}
