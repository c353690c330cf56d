package normalize_test

import (
	"testing"
	"time"

	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/normalize"
	"github.com/okian/argos/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWavelength(t *testing.T) {
	Convey("Given raw wavelength strings", t, func() {
		Convey("Then unit, case and spacing are stripped", func() {
			So(normalize.Wavelength("1310 nm"), ShouldEqual, "1310")
			So(normalize.Wavelength("1550NM"), ShouldEqual, "1550")
			So(normalize.Wavelength("1 550 nm"), ShouldEqual, "1550")
			So(normalize.Wavelength("1550.0 nm"), ShouldEqual, "1550.0")
		})

		Convey("Then bands compare on the normalized form", func() {
			So(normalize.SameBand("1310 nm", "1310NM"), ShouldBeTrue)
			So(normalize.SameBand("1310 nm", "1550 nm"), ShouldBeFalse)
		})
	})
}

func TestRefractiveIndex(t *testing.T) {
	Convey("Given refractive index strings", t, func() {
		Convey("When truncating for exact comparison", func() {
			So(normalize.IndexToken("1.467500"), ShouldEqual, "1.4675")
			So(normalize.IndexToken("1.4675"), ShouldEqual, "1.4675")
			So(normalize.IndexToken("1.46"), ShouldEqual, "1.46")
			So(normalize.IndexToken(""), ShouldEqual, "")
		})

		Convey("When parsing for numeric comparison", func() {
			v, ok := normalize.IndexValue(" 1,46752 ").Get()
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1.4675)

			So(normalize.IndexValue("n/a").IsSet(), ShouldBeFalse)
			So(normalize.IndexValue("").IsSet(), ShouldBeFalse)
		})
	})
}

func TestPulseDigits(t *testing.T) {
	Convey("Given pulse width strings", t, func() {
		So(normalize.PulseDigits("10 ns"), ShouldEqual, "10")
		So(normalize.PulseDigits("1 000ns"), ShouldEqual, "1000")
		So(normalize.PulseDigits("ns"), ShouldEqual, "")
		So(normalize.ExactNormalizedMatch("30 ns", "30ns", normalize.PulseDigits), ShouldBeTrue)
		So(normalize.ExactNormalizedMatch("30 ns", "300 ns", normalize.PulseDigits), ShouldBeFalse)
	})
}

func TestTimestamp(t *testing.T) {
	Convey("Given timestamp strings", t, func() {
		want := time.Date(2020, time.February, 5, 10, 9, 33, 0, time.UTC)

		Convey("When the decoder form carries an epoch suffix", func() {
			ts, ok := normalize.Timestamp("Wed Feb 05 10:09:33 2020 (1580897373 sec)").Get()
			So(ok, ShouldBeTrue)
			So(ts, ShouldEqual, want)
			So(normalize.FormatTimestamp(ts), ShouldEqual, "05/02/2020 10:09:33")
		})

		Convey("When the form is day-first", func() {
			ts, ok := normalize.Timestamp("05/02/2020 10:09:33").Get()
			So(ok, ShouldBeTrue)
			So(ts, ShouldEqual, want)

			ts, ok = normalize.Timestamp("05/02/2020 10:09").Get()
			So(ok, ShouldBeTrue)
			So(ts, ShouldEqual, want.Add(-33*time.Second))
		})

		Convey("When the value cannot be parsed", func() {
			So(normalize.Timestamp("").IsSet(), ShouldBeFalse)
			So(normalize.Timestamp("yesterday").IsSet(), ShouldBeFalse)
			So(normalize.Timestamp("Wed Foo 05 10:09:33 2020").IsSet(), ShouldBeFalse)
		})
	})
}

func TestNumbers(t *testing.T) {
	Convey("Given numeric distance fields", t, func() {
		v, ok := normalize.Distance("10.0204").Get()
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, 10.02)

		So(normalize.Distance("").IsSet(), ShouldBeFalse)
		So(normalize.Distance("abc").IsSet(), ShouldBeFalse)
		So(normalize.Range("29.6").OrElse(-1), ShouldEqual, 30)
		So(normalize.Range("x").IsSet(), ShouldBeFalse)
	})
}

func TestComparisons(t *testing.T) {
	Convey("Given the numeric tolerance comparison", t, func() {
		So(normalize.NumericWithinTolerance(types.Some(1.4676), 1.4675, 0.0001), ShouldBeTrue)
		So(normalize.NumericWithinTolerance(types.Some(1.4674), 1.4675, 0.0001), ShouldBeTrue)
		So(normalize.NumericWithinTolerance(types.Some(1.4677), 1.4675, 0.0001), ShouldBeFalse)
		So(normalize.NumericWithinTolerance(types.None[float64](), 1.4675, 0.0001), ShouldBeFalse)

		So(normalize.Exceeds(10.020-10.000, 0.015), ShouldBeTrue)
		So(normalize.Exceeds(10.015-10.000, 0.015), ShouldBeFalse)
	})
}

func TestRecord(t *testing.T) {
	Convey("Given a decoded trace", t, func() {
		raw := model.RawTrace{
			FileID:       "C1_F01.sor",
			EmbeddedName: "C1_F01.SOR",
			Fixed: map[string]string{
				"date/time":        "Wed Feb 05 10:09:33 2020 (1580897373 sec)",
				"index":            "1.46750000",
				"pulse width":      "10 ns",
				"wavelength":       "1310.0 nm",
				"range":            "29.8",
				"num data points":  "30000",
				"acquisition type": "manual",
			},
			General: map[string]string{
				"wavelength": "1310 nm",
				"cable ID":   " C1 ",
				"operator":   "jdoe",
			},
			Supplier: map[string]string{"supplier": "ACME"},
			Summary:  map[string]string{"loss end": "10.0204"},
			Events: map[string]map[string]string{
				"event 2":    {"type": "1E9999LS", "distance": "10.021"},
				"event 1":    {"type": "0F9999LS", "distance": "2.5", "splice loss": "0.35", "refl loss": "0.000", "slope": "0.334"},
				"event 1b":   {"type": "0F9999LS"},
				"num events": {},
			},
		}

		Convey("When building the record", func() {
			rec := normalize.Record(raw)

			Convey("Then typed fields are normalized", func() {
				So(rec.FileID, ShouldEqual, "C1_F01.sor")
				So(rec.Wavelength, ShouldEqual, "1310 nm")
				So(rec.Band, ShouldEqual, "1310")
				So(rec.RefractiveIndex, ShouldEqual, "1.4675")
				So(rec.CableID, ShouldEqual, "C1")
				So(rec.TotalLengthKm.OrElse(0), ShouldEqual, 10.02)
				So(rec.RangeKm.OrElse(0), ShouldEqual, 30)
				So(rec.Timestamp.IsSet(), ShouldBeTrue)
			})

			Convey("Then extras are renamed, filtered and sorted", func() {
				So(rec.Extra, ShouldResemble, []model.Param{
					{Name: "Operator", Value: "jdoe"},
					{Name: "Supplier", Value: "ACME"},
					{Name: "acquisition type", Value: "manual"},
				})
			})
		})

		Convey("When building the events", func() {
			events := normalize.Events(raw)

			Convey("Then only indexed events remain, ordered by index", func() {
				So(len(events), ShouldEqual, 2)
				So(events[0].Index, ShouldEqual, 1)
				So(events[0].AttenuationDb.OrElse(0), ShouldEqual, 0.35)
				So(events[0].Slope.OrElse(0), ShouldEqual, 0.334)
				So(events[1].Index, ShouldEqual, 2)
				So(events[1].RawType, ShouldEqual, "1E9999LS")
				So(events[1].AttenuationDb.IsSet(), ShouldBeFalse)
			})
		})

		Convey("When two keys differ only in case", func() {
			raw.Events = map[string]map[string]string{
				"event 3": {"type": "1E9999LS", "distance": "10.5"},
				"Event 3": {"type": "1E9999LS", "distance": "10.2"},
				"event 1": {"type": "0F9999LS"},
			}

			Convey("Then ties on the index are ordered by key every time", func() {
				for i := 0; i < 20; i++ {
					events := normalize.Events(raw)
					So(len(events), ShouldEqual, 3)
					So(events[0].Index, ShouldEqual, 1)
					So(events[1].DistanceKm.OrElse(0), ShouldEqual, 10.2)
					So(events[2].DistanceKm.OrElse(0), ShouldEqual, 10.5)
				}
			})
		})

		Convey("When a field is missing", func() {
			rec := normalize.Record(model.RawTrace{FileID: "x.sor"})

			Convey("Then it stays absent", func() {
				So(rec.TotalLengthKm.IsSet(), ShouldBeFalse)
				So(rec.Timestamp.IsSet(), ShouldBeFalse)
				So(rec.RangeKm.IsSet(), ShouldBeFalse)
				So(rec.Band, ShouldEqual, "")
			})
		})
	})
}

func TestEventIndex(t *testing.T) {
	Convey("Given event keys", t, func() {
		n, ok := normalize.EventIndex("Event 12")
		So(ok, ShouldBeTrue)
		So(n, ShouldEqual, 12)

		_, ok = normalize.EventIndex("Summary")
		So(ok, ShouldBeFalse)
		_, ok = normalize.EventIndex("event x")
		So(ok, ShouldBeFalse)
	})
}
