package ledger_test

import (
	"sort"
	"testing"

	"github.com/okian/argos/internal/domain/ledger"
	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func anomaly(kind string, fields ...model.Field) model.Anomaly {
	return model.Anomaly{Kind: kind, Fields: fields}
}

func field(column, value string) model.Field {
	return model.Field{Column: column, Value: types.Text(value)}
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// rowSet renders rows as comparable strings, ignoring order.
func rowSet(l ledger.Ledger) []string {
	cols := sorted(l.Columns())
	var out []string
	for _, r := range l.Rows() {
		s := ""
		for _, c := range cols {
			v := r.Get(c)
			if v.IsAbsent() {
				s += c + "=<absent>;"
				continue
			}
			s += c + "=" + v.String() + ";"
		}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func TestLedgerMerge(t *testing.T) {
	Convey("Given an empty ledger", t, func() {
		l := ledger.New()

		Convey("Then it has no rows or columns", func() {
			So(l.Len(), ShouldEqual, 0)
			So(l.Columns(), ShouldBeEmpty)
			So(l.Merge(nil).Len(), ShouldEqual, 0)
		})

		Convey("When merging batches with different shapes", func() {
			a := []model.Anomaly{
				anomaly("Refractive index out of tolerance",
					field(model.ColFile, "a.sor"), field(model.ColWavelength, "1310 nm")),
			}
			b := []model.Anomaly{
				anomaly("Fiber length inconsistency",
					field(model.ColFile, "b.sor"), field(model.ColCableID, "C1")),
				anomaly("Fiber length inconsistency",
					field(model.ColFile, "c.sor"), field(model.ColCableID, "C1")),
			}

			first := l.Merge(a)
			final := first.Merge(b)

			Convey("Then columns are the union with identifying columns first", func() {
				So(final.Columns(), ShouldResemble, []string{
					model.ColFile, model.ColAnomaly, model.ColWavelength, model.ColCableID,
				})
			})

			Convey("Then missing cells are absent rather than defaulted", func() {
				rows := final.Rows()
				So(rows[0].Get(model.ColCableID).IsAbsent(), ShouldBeTrue)
				So(rows[1].Get(model.ColWavelength).IsAbsent(), ShouldBeTrue)
				So(rows[1].Get(model.ColCableID).String(), ShouldEqual, "C1")
			})

			Convey("Then rows keep merge order", func() {
				rows := final.Rows()
				So(len(rows), ShouldEqual, 3)
				So(rows[0].Kind(), ShouldEqual, "Refractive index out of tolerance")
				So(rows[1].Get(model.ColFile).String(), ShouldEqual, "b.sor")
				So(rows[2].Get(model.ColFile).String(), ShouldEqual, "c.sor")
			})

			Convey("Then earlier ledgers are not mutated", func() {
				So(first.Len(), ShouldEqual, 1)
				So(first.Columns(), ShouldResemble, []string{model.ColFile, model.ColAnomaly, model.ColWavelength})
				So(l.Len(), ShouldEqual, 0)
			})

			Convey("Then the table is aligned to the columns", func() {
				table := final.Table()
				So(len(table), ShouldEqual, 3)
				So(len(table[0]), ShouldEqual, 4)
				So(table[0][1].String(), ShouldEqual, "Refractive index out of tolerance")
				So(table[0][3].IsAbsent(), ShouldBeTrue)
			})

			Convey("Then counts follow first appearance", func() {
				So(final.Counts(), ShouldResemble, []ledger.KindCount{
					{Kind: "Refractive index out of tolerance", Count: 1},
					{Kind: "Fiber length inconsistency", Count: 2},
				})
			})

			Convey("Then merge order does not change content", func() {
				reversed := l.Merge(b).Merge(a)
				So(sorted(reversed.Columns()), ShouldResemble, sorted(final.Columns()))
				So(rowSet(reversed), ShouldResemble, rowSet(final))
			})
		})
	})

	Convey("Given branches merged from one ledger", t, func() {
		base := ledger.New().Merge([]model.Anomaly{anomaly("x", field(model.ColFile, "a.sor"))})
		left := base.Merge([]model.Anomaly{anomaly("y", field(model.ColEvent, "3"))})
		right := base.Merge([]model.Anomaly{anomaly("z", field(model.ColSlope, "0.2"))})

		Convey("Then the branches do not see each other", func() {
			So(left.Len(), ShouldEqual, 2)
			So(right.Len(), ShouldEqual, 2)
			So(left.Columns(), ShouldNotContain, model.ColSlope)
			So(right.Columns(), ShouldNotContain, model.ColEvent)
		})
	})
}
