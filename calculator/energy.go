package calculator

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"blastfield/model"
)

// 同时起爆的单元组
type Cohort struct {
	Elements         []int   `json:"elements"` // 单元下标（空间顺序）
	DetTime          float64 `json:"det_time"` // 组内最早起爆时刻
	Mass             float64 `json:"mass"`
	CumulativeBefore float64 `json:"cumulative_before"`
	CumulativeAfter  float64 `json:"cumulative_after"`
	Em               float64 `json:"em"` // 整组的能量贡献
}

// 按起爆时刻排序后分组，相邻单元起爆时刻之差小于 tol 的归为同一组
// 起爆时刻相同时按下标排序，保证结果确定
func Cohorts(elements []model.Element, tol float64) []Cohort {
	order := make([]int, len(elements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := elements[order[a]], elements[order[b]]
		if ea.DetTime != eb.DetTime {
			return ea.DetTime < eb.DetTime
		}
		return ea.Index < eb.Index
	})

	var cohorts []Cohort
	prev := math.Inf(-1)
	for _, k := range order {
		e := elements[k]
		if len(cohorts) == 0 || !(e.DetTime-prev < tol) {
			cohorts = append(cohorts, Cohort{DetTime: e.DetTime})
		}
		c := &cohorts[len(cohorts)-1]
		c.Elements = append(c.Elements, k)
		c.Mass += e.Mass
		prev = e.DetTime
	}
	return cohorts
}

// 非线性叠加：按起爆顺序累加质量，每组贡献 after^A - before^A，组内平均分配
// 计算结束后校验 ΣEm == totalMass^A
func Contributions(elements []model.Element, totalMass, exponent, tol float64) ([]Cohort, error) {
	cohorts := Cohorts(elements, tol)
	cumulative := 0.0
	for i := range cohorts {
		c := &cohorts[i]
		c.CumulativeBefore = cumulative
		c.CumulativeAfter = cumulative + c.Mass
		c.Em = math.Pow(c.CumulativeAfter, exponent) - math.Pow(c.CumulativeBefore, exponent)
		share := c.Em / float64(len(c.Elements))
		for _, k := range c.Elements {
			elements[k].Em = share
		}
		cumulative = c.CumulativeAfter
	}

	for _, e := range elements {
		if math.IsNaN(e.Em) || math.IsInf(e.Em, 0) || math.IsNaN(e.DetTime) || math.IsInf(e.DetTime, 0) {
			return cohorts, degeneracyErrorf("element %d: Em %v, det time %v", e.Index, e.Em, e.DetTime)
		}
	}
	if err := checkConservation(elements, cohorts, totalMass, exponent); err != nil {
		return cohorts, err
	}
	return cohorts, nil
}

func checkConservation(elements []model.Element, cohorts []Cohort, totalMass, exponent float64) error {
	sum := 0.0
	for _, e := range elements {
		sum += e.Em
	}
	want := math.Pow(totalMass, exponent)
	if math.Abs(sum-want) <= model.ConservationTolerance*math.Abs(want) {
		return nil
	}

	trace := make([]float64, len(cohorts))
	groups := make([][]int, len(cohorts))
	for i, c := range cohorts {
		trace[i] = c.CumulativeAfter
		groups[i] = c.Elements
	}
	log.WithFields(log.Fields{
		"sum":        sum,
		"want":       want,
		"totalMass":  totalMass,
		"exponent":   exponent,
		"cohorts":    groups,
		"cumulative": trace,
	}).Error("能量守恒校验失败")
	return errors.Wrapf(ErrInvariantViolation, "sum Em %v != totalMass^A %v", sum, want)
}

// Simulate 使用的能量计算，测试中可替换
var contributions = Contributions

// 按起爆顺序的累计质量
func CumulativeMass(elements []model.Element) []float64 {
	cohorts := Cohorts(elements, 0)
	res := make([]float64, 0, len(elements))
	cumulative := 0.0
	for _, c := range cohorts {
		for _, k := range c.Elements {
			cumulative += elements[k].Mass
			res = append(res, cumulative)
		}
	}
	return res
}
