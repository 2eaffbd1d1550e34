package state

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// legal mirrors the transition table for exhaustive pair checking.
var legal = map[State][]State{
	Stopped:   {Loading},
	Loading:   {Playing, Paused, Error, Stopped},
	Playing:   {Paused, Buffering, Ended, Error, Stopped},
	Paused:    {Playing, Stopped, Error},
	Buffering: {Playing, Paused, Error, Stopped},
	Ended:     {Playing, Stopped, Loading},
	Error:     {Stopped, Loading},
}

func contains(ss []State, s State) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func TestTransitionTable(t *testing.T) {
	Convey("For every (state, target) pair", t, func() {
		for _, from := range All() {
			for _, to := range All() {
				m := NewMachine()
				m.ForceState(from)

				var notified int
				m.OnChange(func(State, State) { notified++ })

				ok := m.TryTransition(to)

				switch {
				case from == to:
					So(ok, ShouldBeTrue)
					So(notified, ShouldEqual, 0)
					So(m.Current(), ShouldEqual, from)
				case contains(legal[from], to):
					So(ok, ShouldBeTrue)
					So(notified, ShouldEqual, 1)
					So(m.Current(), ShouldEqual, to)
				default:
					So(ok, ShouldBeFalse)
					So(notified, ShouldEqual, 0)
					So(m.Current(), ShouldEqual, from)
				}
			}
		}
	})
}

func TestMachine(t *testing.T) {
	Convey("Given a new machine", t, func() {
		m := NewMachine()

		Convey("It starts Stopped", func() {
			So(m.Current(), ShouldEqual, Stopped)
			So(m.Is(Stopped), ShouldBeTrue)
		})

		Convey("Notifications carry the transition endpoints", func() {
			var gotFrom, gotTo State
			m.OnChange(func(from, to State) { gotFrom, gotTo = from, to })

			So(m.TryTransition(Loading), ShouldBeTrue)
			So(gotFrom, ShouldEqual, Stopped)
			So(gotTo, ShouldEqual, Loading)
		})

		Convey("ForceState bypasses the table", func() {
			m.ForceState(Paused)
			So(m.Current(), ShouldEqual, Paused)
		})

		Convey("States render readable names", func() {
			So(Playing.String(), ShouldEqual, "playing")
			So(State(99).String(), ShouldEqual, "unknown")
		})
	})
}
