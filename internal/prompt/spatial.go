package prompt

import (
	"fmt"
	"math"
)

// #region relations

// relation holds the three phrases describing an object's placement on
// one axis relative to the arm: ahead, behind, close.
type relation struct {
	key     string
	phrases [3]string
}

// relations lists the per-axis phrase triples in the same order as
// pose components 0..5.
var relations = []relation{
	{"x_relation", [3]string{
		"to the forward of the robot arm",
		"to the backward of the robot arm",
		"close to the robot arm along the x-axis",
	}},
	{"y_relation", [3]string{
		"to the left of the robot arm",
		"to the right of the robot arm",
		"close to the robot arm along the y-axis",
	}},
	{"z_relation", [3]string{
		"above the robot arm",
		"below the robot arm",
		"close to the robot arm along the z-axis",
	}},
	{"pitch_relation", [3]string{
		"pitched more up compared to the robot arm",
		"pitched more down compared to the robot arm",
		"pitch orientation is close to the robot arm's pitch orientation",
	}},
	{"roll_relation", [3]string{
		"rolled more left compared to the robot arm",
		"rolled more right compared to the robot arm",
		"roll orientation is close to the robot arm's roll orientation",
	}},
	{"yaw_relation", [3]string{
		"yawed more left compared to the robot arm",
		"yawed more right compared to the robot arm",
		"yaw orientation is close to the robot arm's yaw orientation",
	}},
}

const holdingPhrase = "The robot arm is holding the object."

// spatialPhrase picks the relation phrase for one axis: "close" inside
// the approximation band, otherwise the side the object lies on.
func spatialPhrase(objComponent, armComponent float64, r relation, approximate float64) string {
	if math.Abs(objComponent-armComponent) <= approximate {
		return r.phrases[2]
	}
	if objComponent > armComponent {
		return r.phrases[0]
	}
	return r.phrases[1]
}

// #endregion relations

// #region approximation

// approximateNum rounds a value to the configured granularity and
// formats it. Rounded magnitudes at or beyond 350 collapse to zero,
// which folds near-360 orientation readings back onto the wrap point.
func approximateNum(num, approximate float64, decimal int) string {
	if decimal == 0 {
		v := math.Round(num/approximate) * approximate
		if math.Abs(v) >= 350 {
			v = 0
		}
		return fmt.Sprintf("%d", int(v))
	}
	factor := math.Pow(10, float64(decimal))
	v := math.Round(num/approximate*factor) / factor * approximate
	if math.Abs(v) >= 350 {
		v = 0
	}
	return fmt.Sprintf("%.*f", decimal, v)
}

// #endregion approximation
