package calculator

import (
	"context"

	"blastfield/model"
)

// calculator 的接口定义

type Calculator interface {
	// 单个炮孔的完整计算：离散 -> 爆轰波传播 -> 能量贡献
	Simulate(col model.ChargeColumn) (*Result, error)

	// 降级计算，仅使用最早起爆的药包
	SimulateDegraded(col model.ChargeColumn) (*Result, error)

	// 批量计算，每个炮孔独立
	Batch(ctx context.Context, jobs []Job) []HoleResult

	Params() Params
}

// 单个炮孔的计算结果
type Result struct {
	Column    model.ChargeColumn `json:"column"`
	Elements  []model.Element    `json:"elements"` // 空间顺序
	Cohorts   []Cohort           `json:"cohorts"`
	Tolerance float64            `json:"tolerance"`
	Degraded  bool               `json:"degraded"`
}

type ColumnCalculator struct {
	params  Params
	workers int
}

func NewCalculator(params Params, workers int) (*ColumnCalculator, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	return &ColumnCalculator{params: params, workers: workers}, nil
}

func (c *ColumnCalculator) Params() Params {
	return c.params
}

func (c *ColumnCalculator) Simulate(col model.ChargeColumn) (*Result, error) {
	col = c.params.resolve(col)
	if err := validateColumn(col); err != nil {
		return nil, err
	}
	elements, err := Discretize(col)
	if err != nil {
		return nil, err
	}
	if err = DetonationTimes(col, elements); err != nil {
		return nil, err
	}
	tol := c.params.Tolerance(col)
	cohorts, err := contributions(elements, col.TotalMass, c.params.ChargeExponent, tol)
	if err != nil {
		return nil, err
	}
	return &Result{
		Column:    col,
		Elements:  elements,
		Cohorts:   cohorts,
		Tolerance: tol,
	}, nil
}
