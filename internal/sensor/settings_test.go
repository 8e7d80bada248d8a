package sensor

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/i474232898/temperature-monitor/internal/climate"
	"github.com/i474232898/temperature-monitor/internal/logging"
)

func TestManager(t *testing.T) {
	Convey("Given a fresh settings path", t, func() {
		path := filepath.Join(t.TempDir(), "world", DefaultFileName)
		spawn := climate.Position{X: 512000, Y: 110, Z: 512000}

		m, err := Open(path, spawn, logging.Discard())
		So(err, ShouldBeNil)

		Convey("Then the sensor defaults to the spawn point and the file is created", func() {
			So(m.Current(), ShouldResemble, Location{Mode: ModeSpawn, Position: spawn})
			So(m.Position(), ShouldResemble, spawn)
			_, err := os.Stat(path)
			So(err, ShouldBeNil)
		})

		Convey("When a fixed location is set", func() {
			pos := climate.Position{X: 1, Y: 2, Z: 3}
			loc, err := m.SetLocation(pos)
			So(err, ShouldBeNil)
			So(loc, ShouldResemble, Location{Mode: ModeFixed, Position: pos})

			Convey("Then it survives a reopen", func() {
				again, err := Open(path, spawn, logging.Discard())
				So(err, ShouldBeNil)
				So(again.Position(), ShouldResemble, pos)
			})

			Convey("And moving back to spawn clears it", func() {
				loc, err := m.SetSpawn()
				So(err, ShouldBeNil)
				So(loc.Mode, ShouldEqual, ModeSpawn)
				So(m.Position(), ShouldResemble, spawn)
			})
		})
	})

	Convey("Given a settings file without a location", t, func() {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		So(os.WriteFile(path, []byte("use_spawn_point: false\n"), 0o644), ShouldBeNil)
		spawn := climate.Position{X: 5, Y: 6, Z: 7}

		m, err := Open(path, spawn, logging.Discard())
		So(err, ShouldBeNil)

		Convey("Then it reports unset but still samples at spawn", func() {
			So(m.Current().Mode, ShouldEqual, ModeUnset)
			So(m.Position(), ShouldResemble, spawn)
		})
	})

	Convey("Given a malformed settings file", t, func() {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		So(os.WriteFile(path, []byte("use_spawn_point: [oops"), 0o644), ShouldBeNil)

		m, err := Open(path, climate.Position{}, logging.Discard())

		Convey("Then defaults are used", func() {
			So(err, ShouldBeNil)
			So(m.Current().Mode, ShouldEqual, ModeSpawn)
		})
	})
}
