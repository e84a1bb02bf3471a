package dataset_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
	. "github.com/smartystreets/goconvey/convey"
)

func titanicLike() *dataset.Dataset {
	ds, err := dataset.FromRecords(
		[]dataset.Column{
			{Name: "age", Kind: dataset.Numerical},
			{Name: "fare", Kind: dataset.Numerical},
			{Name: "class", Kind: dataset.Categorical, Levels: []string{"1st", "2nd", "3rd"}},
		},
		[][]dataset.Value{
			{dataset.Num(20), dataset.Num(7.25), dataset.Cat("3rd")},
			{dataset.Num(30), dataset.Num(71.28), dataset.Cat("1st")},
			{dataset.Num(40), dataset.Num(8.05), dataset.Cat("3rd")},
			{dataset.Num(25), dataset.Num(13.00), dataset.Cat("2nd")},
			{dataset.Num(35), dataset.Num(26.55), dataset.Cat("1st")},
		},
	)
	if err != nil {
		panic(err)
	}
	return ds
}

func TestDatasetConstruction(t *testing.T) {
	Convey("Given a schema and rows", t, func() {
		ds := titanicLike()

		Convey("Then shape and schema lookups work", func() {
			So(ds.NumRows(), ShouldEqual, 5)
			So(len(ds.Columns()), ShouldEqual, 3)
			So(ds.Has("age"), ShouldBeTrue)
			So(ds.Has("cabin"), ShouldBeFalse)

			col, err := ds.Column("class")
			So(err, ShouldBeNil)
			So(col.Kind, ShouldEqual, dataset.Categorical)
			So(col.Levels, ShouldResemble, []string{"1st", "2nd", "3rd"})
		})

		Convey("When asking for an unknown variable", func() {
			_, err := ds.Column("cabin")
			So(err, ShouldWrap, dataset.ErrUnknownVariable)
		})

		Convey("When a row does not match the schema", func() {
			_, err := dataset.FromRecords(
				[]dataset.Column{{Name: "x", Kind: dataset.Numerical}},
				[][]dataset.Value{{dataset.Num(1), dataset.Num(2)}},
			)
			So(err, ShouldWrap, dataset.ErrRowShape)
		})

		Convey("When a categorical cell uses an undeclared level", func() {
			_, err := dataset.FromRecords(
				[]dataset.Column{{Name: "class", Kind: dataset.Categorical, Levels: []string{"1st"}}},
				[][]dataset.Value{{dataset.Cat("4th")}},
			)
			So(err, ShouldWrap, dataset.ErrUnknownLevel)
		})
	})
}

func TestDatasetAccessors(t *testing.T) {
	Convey("Given a dataset", t, func() {
		ds := titanicLike()

		Convey("NumericValues returns observed values in row order", func() {
			ages, err := ds.NumericValues("age")
			So(err, ShouldBeNil)
			So(ages, ShouldResemble, []float64{20, 30, 40, 25, 35})
		})

		Convey("NumericValues on a categorical column fails", func() {
			_, err := ds.NumericValues("class")
			So(err, ShouldWrap, dataset.ErrKindMismatch)
		})

		Convey("Levels preserves declared order", func() {
			levels, err := ds.Levels("class")
			So(err, ShouldBeNil)
			So(levels, ShouldResemble, []string{"1st", "2nd", "3rd"})
		})

		Convey("Row returns an independent copy", func() {
			row := ds.Row(0)
			row[0] = dataset.Num(99)
			again := ds.Row(0)
			So(again[0].Num, ShouldEqual, 20)
		})
	})
}

func TestDatasetTransforms(t *testing.T) {
	Convey("Given a dataset", t, func() {
		ds := titanicLike()

		Convey("Sample caps at the dataset size", func() {
			rng := rand.New(rand.NewSource(1))
			So(ds.Sample(10, rng).NumRows(), ShouldEqual, 5)
			So(ds.Sample(2, rng).NumRows(), ShouldEqual, 2)
		})

		Convey("Sample preserves original row order", func() {
			rng := rand.New(rand.NewSource(7))
			sub := ds.Sample(3, rng)
			ages, err := sub.NumericValues("age")
			So(err, ShouldBeNil)
			for i := 1; i < len(ages); i++ {
				// values come from {20,30,40,25,35} in original index order,
				// so each sampled age must appear at a later original index
				So(indexOf(ages[i]), ShouldBeGreaterThan, indexOf(ages[i-1]))
			}
		})

		Convey("Substituted replaces exactly one variable", func() {
			sub, err := ds.Substituted(1, "age", []dataset.Value{dataset.Num(18), dataset.Num(60)})
			So(err, ShouldBeNil)
			So(sub.NumRows(), ShouldEqual, 2)

			ages, _ := sub.NumericValues("age")
			So(ages, ShouldResemble, []float64{18, 60})
			fares, _ := sub.NumericValues("fare")
			So(fares, ShouldResemble, []float64{71.28, 71.28})
		})

		Convey("Drop removes a column", func() {
			rest, err := ds.Drop("fare")
			So(err, ShouldBeNil)
			So(len(rest.Columns()), ShouldEqual, 2)
			So(rest.Has("fare"), ShouldBeFalse)
			So(rest.NumRows(), ShouldEqual, 5)
		})

		Convey("Permuted keeps the value multiset of the column", func() {
			rng := rand.New(rand.NewSource(3))
			perm, err := ds.Permuted("age", rng)
			So(err, ShouldBeNil)
			orig, _ := ds.NumericValues("age")
			shuffled, _ := perm.NumericValues("age")
			So(sum(shuffled), ShouldAlmostEqual, sum(orig))
			fares, _ := perm.NumericValues("fare")
			want, _ := ds.NumericValues("fare")
			So(fares, ShouldResemble, want)
		})

		Convey("SplitTarget extracts a numeric target", func() {
			rest, y, err := ds.SplitTarget("fare")
			So(err, ShouldBeNil)
			So(len(y), ShouldEqual, 5)
			So(rest.Has("fare"), ShouldBeFalse)
		})
	})
}

func TestFromCSV(t *testing.T) {
	Convey("Given a CSV payload", t, func() {
		raw := "age,class\n20,3rd\n30,1st\n40,3rd\n"

		Convey("Then columns are sniffed and levels ordered by appearance", func() {
			ds, err := dataset.FromCSV(strings.NewReader(raw))
			So(err, ShouldBeNil)
			So(ds.NumRows(), ShouldEqual, 3)

			age, err := ds.Column("age")
			So(err, ShouldBeNil)
			So(age.Kind, ShouldEqual, dataset.Numerical)

			class, err := ds.Column("class")
			So(err, ShouldBeNil)
			So(class.Kind, ShouldEqual, dataset.Categorical)
			So(class.Levels, ShouldResemble, []string{"3rd", "1st"})
		})

		Convey("When a record has the wrong width", func() {
			_, err := dataset.FromCSV(strings.NewReader("a,b\n1\n"))
			So(err, ShouldNotBeNil)
		})
	})
}

func indexOf(age float64) int {
	order := []float64{20, 30, 40, 25, 35}
	for i, v := range order {
		if v == age {
			return i
		}
	}
	return -1
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
