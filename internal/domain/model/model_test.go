package model_test

import (
	"context"
	"testing"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func numericData(xs []float64) *dataset.Dataset {
	rows := make([][]dataset.Value, len(xs))
	for i, x := range xs {
		rows[i] = []dataset.Value{dataset.Num(x)}
	}
	ds, err := dataset.FromRecords(
		[]dataset.Column{{Name: "x", Kind: dataset.Numerical}},
		rows,
	)
	if err != nil {
		panic(err)
	}
	return ds
}

func TestTrainLinear(t *testing.T) {
	Convey("Given y = 3x + 2 without noise", t, func() {
		xs := []float64{0, 1, 2, 3, 4, 5}
		ds := numericData(xs)
		target := make([]float64, len(xs))
		for i, x := range xs {
			target[i] = 3*x + 2
		}

		m, err := model.TrainLinear(ds, target)
		So(err, ShouldBeNil)

		Convey("Then the fit recovers intercept and slope", func() {
			coef := m.Coefficients()
			So(len(coef), ShouldEqual, 2)
			So(coef[0], ShouldAlmostEqual, 2, 1e-9)
			So(coef[1], ShouldAlmostEqual, 3, 1e-9)
		})

		Convey("Then predictions on new rows follow the line", func() {
			preds, err := m.Predict(context.Background(), numericData([]float64{10, -1}))
			So(err, ShouldBeNil)
			So(preds[0], ShouldAlmostEqual, 32, 1e-9)
			So(preds[1], ShouldAlmostEqual, -1, 1e-9)
		})

		Convey("Then the label names the kind", func() {
			So(m.Label(), ShouldEqual, "linear")
		})
	})

	Convey("Given a categorical feature", t, func() {
		levels := []string{"a", "b", "c"}
		rows := [][]dataset.Value{
			{dataset.Cat("a")}, {dataset.Cat("b")}, {dataset.Cat("c")},
			{dataset.Cat("a")}, {dataset.Cat("b")}, {dataset.Cat("c")},
		}
		ds, err := dataset.FromRecords(
			[]dataset.Column{{Name: "grp", Kind: dataset.Categorical, Levels: levels}},
			rows,
		)
		So(err, ShouldBeNil)
		// per-level means 1, 5, 9
		target := []float64{1, 5, 9, 1, 5, 9}

		m, err := model.TrainLinear(ds, target)
		So(err, ShouldBeNil)

		Convey("Then each level predicts its own mean", func() {
			preds, err := m.Predict(context.Background(), ds)
			So(err, ShouldBeNil)
			So(preds[0], ShouldAlmostEqual, 1, 1e-9)
			So(preds[1], ShouldAlmostEqual, 5, 1e-9)
			So(preds[2], ShouldAlmostEqual, 9, 1e-9)
		})
	})

	Convey("Given fewer rows than coefficients", t, func() {
		ds := numericData([]float64{1})
		_, err := model.TrainLinear(ds, []float64{1})
		So(err, ShouldWrap, model.ErrUnderdetermined)
	})

	Convey("Given a mismatched target", t, func() {
		ds := numericData([]float64{1, 2, 3})
		_, err := model.TrainLinear(ds, []float64{1})
		So(err, ShouldWrap, model.ErrTargetLength)
	})

	Convey("Given a prediction dataset missing a feature", t, func() {
		ds := numericData([]float64{1, 2, 3})
		m, err := model.TrainLinear(ds, []float64{2, 4, 6})
		So(err, ShouldBeNil)

		other, err := dataset.FromRecords(
			[]dataset.Column{{Name: "z", Kind: dataset.Numerical}},
			[][]dataset.Value{{dataset.Num(0)}},
		)
		So(err, ShouldBeNil)

		_, err = m.Predict(context.Background(), other)
		So(err, ShouldWrap, dataset.ErrUnknownVariable)
	})
}

func TestTrainMean(t *testing.T) {
	Convey("Given a target vector", t, func() {
		m := model.TrainMean([]float64{2, 4, 6})

		preds, err := m.Predict(context.Background(), numericData([]float64{1, 99}))
		So(err, ShouldBeNil)

		Convey("Then every prediction is the mean", func() {
			So(preds[0], ShouldEqual, 4)
			So(preds[1], ShouldEqual, 4)
		})

		So(m.Label(), ShouldEqual, "mean")
	})
}

func TestTrain(t *testing.T) {
	Convey("Given the factory", t, func() {
		ds := numericData([]float64{1, 2, 3, 4})
		target := []float64{2, 4, 6, 8}

		Convey("When asking for each known kind", func() {
			linear, err := model.Train(model.Linear, ds, target)
			So(err, ShouldBeNil)
			So(linear.Label(), ShouldEqual, "linear")

			mean, err := model.Train(model.Mean, ds, target)
			So(err, ShouldBeNil)
			So(mean.Label(), ShouldEqual, "mean")
		})

		Convey("When asking for an unknown kind", func() {
			_, err := model.Train(model.Kind("forest"), ds, target)
			So(err, ShouldWrap, model.ErrUnknownKind)
		})

		Convey("When the dataset is empty", func() {
			empty, err := dataset.New([]dataset.Column{{Name: "x", Kind: dataset.Numerical}})
			So(err, ShouldBeNil)
			_, err = model.Train(model.Mean, empty, nil)
			So(err, ShouldWrap, model.ErrNoObservations)
		})
	})
}
