package progressbar

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestProgressBar(t *testing.T) {
	Convey("Given a progress bar of width 10 over 4 iterations", t, func() {
		var out bytes.Buffer
		p := NewProgressBar(&out, "warmup", 10, 4)

		Convey("It starts empty", func() {
			So(p.Progress(), ShouldEqual, 0)
			So(p.String(), ShouldStartWith, "warmup |")
			So(strings.Count(p.String(), "█"), ShouldEqual, 0)
		})

		Convey("Increments fill the bar", func() {
			p.Increment()
			p.Increment()
			So(p.Progress(), ShouldEqual, 0.5)
			So(strings.Count(p.String(), "█"), ShouldEqual, 5)
			So(p.String(), ShouldContainSubstring, "50.00%")
		})

		Convey("Progress never exceeds 100%", func() {
			for i := 0; i < 10; i++ {
				p.Increment()
			}
			So(p.Progress(), ShouldEqual, 1)
			So(strings.Count(p.String(), "█"), ShouldEqual, 10)
		})

		Convey("Display writes to the output", func() {
			p.Display()
			p.Close()
			So(out.String(), ShouldContainSubstring, "warmup")
			So(out.String(), ShouldEndWith, "\n")
		})
	})
}
