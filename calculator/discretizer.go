package calculator

import (
	"math"

	"blastfield/model"
)

// 将装药柱等分为 M 个等质量单元
// 单元 0 靠近孔底，单元 M-1 靠近装药顶部
// centreDepth(i) = L - (i + 0.5) * L / M，距装药柱顶部
func Discretize(col model.ChargeColumn) ([]model.Element, error) {
	m := col.NumElements
	if m < 1 {
		return nil, configErrorf("element count %d must be >= 1", m)
	}
	l := col.Length()
	if math.IsNaN(l) || l <= 0 {
		return nil, configErrorf("charge length %v must be positive", l)
	}
	if math.IsInf(l, 0) {
		return nil, degeneracyErrorf("charge length is infinite")
	}

	step := l / float64(m)
	mass := col.TotalMass / float64(m)
	elements := make([]model.Element, m)
	for i := range elements {
		elements[i] = model.Element{
			Index:       i,
			CentreDepth: l - (float64(i)+0.5)*step,
			Mass:        mass,
			DetTime:     math.Inf(1),
			Source:      -1,
		}
	}
	return elements, nil
}

func elementLength(col model.ChargeColumn) float64 {
	return col.Length() / float64(col.NumElements)
}
