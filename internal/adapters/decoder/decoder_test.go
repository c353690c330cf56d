package decoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeDecoder writes a shell script that behaves like the real decoder: it
// writes "<stem>-dump.json" next to the trace it is given.
const fakeDecoder = `#!/bin/sh
stem="${1%.*}"
cat > "$stem-dump.json" <<EOF
{
  "filename": "$1",
  "FxdParams": {"index": 1.4675, "pulse width": "10 ns", "date/time": "Tue May 14 09:30:00 2024 (1715679000 sec)", "range": 20.0, "X1": 3},
  "GenParams": {"wavelength": "1310 nm", "cable ID": "C1", "fiber": {"core": 9}},
  "SupParams": {"software": "OTDR 1.2", "calibrated": true, "note": null},
  "KeyEvents": {
    "Summary": {"loss end": 10.004, "total loss": 3.2},
    "event 1": {"type": "0F9999LS", "distance": "1.500", "splice loss": "0.350"},
    "event 2": {"type": "1E9999LS", "distance": 10.004},
    "num events": 2
  }
}
EOF
`

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake decoder is a shell script")
	}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil { //nolint:gosec // test script must be executable
		t.Fatal(err)
	}
	return path
}

func writeTrace(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("SOR"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDump(t *testing.T) {
	Convey("Given a decoder dump", t, func() {
		dump := `{"filename":"F1.sor","FxdParams":{"index":1.46750,"unit":"km"},
			"KeyEvents":{"Summary":{"loss end":"10.0"},"Event 3":{"type":"1E9999"},"num events":1}}`

		Convey("When parsing it", func() {
			raw, err := ParseDump(strings.NewReader(dump), "F1.sor")

			Convey("Then numbers keep their text and sections are split", func() {
				So(err, ShouldBeNil)
				So(raw.FileID, ShouldEqual, "F1.sor")
				So(raw.EmbeddedName, ShouldEqual, "F1.sor")
				So(raw.Fixed["index"], ShouldEqual, "1.46750")
				So(raw.General, ShouldBeEmpty)
				So(raw.Summary["loss end"], ShouldEqual, "10.0")
				So(raw.Events, ShouldContainKey, "Event 3")
				So(raw.Events, ShouldNotContainKey, "num events")
			})
		})

		Convey("When the dump is not JSON", func() {
			_, err := ParseDump(strings.NewReader("{broken"), "F1.sor")

			Convey("Then ErrDecode is returned", func() {
				So(errors.Is(err, ErrDecode), ShouldBeTrue)
			})
		})
	})
}

func TestTraceName(t *testing.T) {
	Convey("Given dump filenames", t, func() {
		So(TraceName("/tmp/F1-dump.json"), ShouldEqual, "F1.sor")
		So(TraceName("F1_2-DUMP.JSON"), ShouldEqual, "F1_2.sor")
		So(TraceName("other.json"), ShouldEqual, "other.json")
	})
}

func TestExecDecode(t *testing.T) {
	skipOnWindows(t)

	Convey("Given a trace and a fake decoder", t, func() {
		dir := t.TempDir()
		script := writeScript(t, dir, "fake-decoder", fakeDecoder)
		trace := writeTrace(t, dir, "F1.sor")
		ctx := context.Background()

		Convey("When decoding with the command", func() {
			raw, err := NewExec(WithCommand(script)).Decode(ctx, trace)

			Convey("Then the dump sections are returned", func() {
				So(err, ShouldBeNil)
				So(raw.FileID, ShouldEqual, "F1.sor")
				So(raw.EmbeddedName, ShouldEqual, "F1.sor")
				So(raw.Fixed["index"], ShouldEqual, "1.4675")
				So(raw.Fixed["range"], ShouldEqual, "20.0")
				So(raw.General["cable ID"], ShouldEqual, "C1")
				So(raw.General["fiber"], ShouldEqual, `{"core":9}`)
				So(raw.Supplier["calibrated"], ShouldEqual, "true")
				So(raw.Supplier["note"], ShouldEqual, "")
				So(raw.Summary["loss end"], ShouldEqual, "10.004")
				So(len(raw.Events), ShouldEqual, 2)
				So(raw.Events["event 1"]["splice loss"], ShouldEqual, "0.350")
			})

			Convey("Then the trace directory is left untouched", func() {
				_, statErr := os.Stat(filepath.Join(dir, "F1-dump.json"))
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When the primary command is missing", func() {
			raw, err := NewExec(
				WithCommand("argos-no-such-decoder"),
				WithFallback("/bin/sh", script),
			).Decode(ctx, trace)

			Convey("Then the fallback decodes the trace", func() {
				So(err, ShouldBeNil)
				So(raw.General["wavelength"], ShouldEqual, "1310 nm")
			})
		})

		Convey("When the command is missing and no fallback is set", func() {
			_, err := NewExec(WithCommand("argos-no-such-decoder"), WithFallback()).Decode(ctx, trace)

			Convey("Then the not found error is wrapped", func() {
				So(errors.Is(err, ErrDecode), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "F1.sor")
			})
		})

		Convey("When the decoder fails", func() {
			failing := writeScript(t, dir, "failing", "#!/bin/sh\necho 'corrupt trace' >&2\nexit 3\n")
			_, err := NewExec(WithCommand(failing)).Decode(ctx, trace)

			Convey("Then its stderr is part of the error", func() {
				So(errors.Is(err, ErrDecode), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "corrupt trace")
			})
		})

		Convey("When the decoder writes no dump", func() {
			silent := writeScript(t, dir, "silent", "#!/bin/sh\nexit 0\n")
			_, err := NewExec(WithCommand(silent)).Decode(ctx, trace)

			Convey("Then ErrDecode is returned", func() {
				So(errors.Is(err, ErrDecode), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "no dump produced")
			})
		})

		Convey("When the decoder exceeds the timeout", func() {
			slow := writeScript(t, dir, "slow", "#!/bin/sh\nexec sleep 5\n")
			start := time.Now()
			_, err := NewExec(WithCommand(slow), WithTimeout(100*time.Millisecond)).Decode(ctx, trace)

			Convey("Then it is stopped", func() {
				So(errors.Is(err, ErrDecode), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, 4*time.Second)
			})
		})

		Convey("When no command is configured", func() {
			e := NewExec()
			e.command = nil
			_, err := e.Decode(ctx, trace)

			Convey("Then ErrNoCommand is returned", func() {
				So(errors.Is(err, ErrNoCommand), ShouldBeTrue)
			})
		})
	})
}

func TestAuto(t *testing.T) {
	Convey("Given a dump file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "F7-dump.json")
		So(os.WriteFile(path, []byte(`{"filename":"F7.sor","GenParams":{"wavelength":"1550 nm"}}`), 0o600), ShouldBeNil)

		Convey("When decoding through Auto", func() {
			raw, err := Auto{Trace: NewExec(WithCommand("argos-no-such-decoder"), WithFallback())}.Decode(context.Background(), path)

			Convey("Then the dump is read without running a decoder", func() {
				So(err, ShouldBeNil)
				So(raw.FileID, ShouldEqual, "F7.sor")
				So(raw.General["wavelength"], ShouldEqual, "1550 nm")
			})
		})

		Convey("When the dump does not exist", func() {
			_, err := Dump{}.Decode(context.Background(), filepath.Join(dir, "missing.json"))

			Convey("Then ErrDecode is returned", func() {
				So(errors.Is(err, ErrDecode), ShouldBeTrue)
			})
		})
	})
}

func TestPool(t *testing.T) {
	skipOnWindows(t)

	Convey("Given several traces, one of them unreadable", t, func() {
		dir := t.TempDir()
		script := writeScript(t, dir, "fake-decoder", fakeDecoder)
		var paths []string
		for _, name := range []string{"F1.sor", "F2.sor", "F3.sor", "F4.sor"} {
			paths = append(paths, writeTrace(t, dir, name))
		}
		paths = append(paths[:2], append([]string{filepath.Join(dir, "missing.sor")}, paths[2:]...)...)
		pool := NewPool(NewExec(WithCommand(script)), WithWorkers(2))

		Convey("When decoding all of them", func() {
			batch, err := pool.DecodeAll(context.Background(), paths)

			Convey("Then the good traces keep input order", func() {
				So(err, ShouldBeNil)
				So(len(batch.Traces), ShouldEqual, 4)
				var names []string
				for _, tr := range batch.Traces {
					names = append(names, tr.FileID)
				}
				So(names, ShouldResemble, []string{"F1.sor", "F2.sor", "F3.sor", "F4.sor"})
			})

			Convey("Then the failure is collected, not fatal", func() {
				So(len(batch.Failures), ShouldEqual, 1)
				So(batch.Failures[0].Path, ShouldEqual, filepath.Join(dir, "missing.sor"))
				So(errors.Is(batch.Failures[0], ErrDecode), ShouldBeTrue)
			})
		})

		Convey("When the context is already canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := pool.DecodeAll(ctx, paths)

			Convey("Then the cancellation is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
