package calculator

import (
	"math"

	"blastfield/model"
)

// 计算参数，显式传入，不使用全局状态
type Params struct {
	ChargeExponent  float64 // 装药指数 A
	NumElements     int     // 炮孔未指定单元数时使用
	ToleranceFactor float64 // 同时起爆容差，单位为爆轰波穿过一个单元的时间
}

func DefaultParams() Params {
	return Params{
		ChargeExponent:  model.DefaultChargeExponent,
		NumElements:     model.DefaultNumElements,
		ToleranceFactor: model.DefaultToleranceFactor,
	}
}

func (p Params) validate() error {
	if math.IsNaN(p.ChargeExponent) || math.IsInf(p.ChargeExponent, 0) || p.ChargeExponent <= 0 {
		return configErrorf("charge exponent %v must be positive", p.ChargeExponent)
	}
	if p.NumElements < 1 {
		return configErrorf("default element count %d must be >= 1", p.NumElements)
	}
	if math.IsNaN(p.ToleranceFactor) || p.ToleranceFactor < 0 {
		return configErrorf("tolerance factor %v must be >= 0", p.ToleranceFactor)
	}
	return nil
}

// 同时起爆容差（ms）：爆轰波以爆速穿过 ToleranceFactor 个单元长度的时间
func (p Params) Tolerance(col model.ChargeColumn) float64 {
	m := col.NumElements
	if m < 1 {
		m = p.NumElements
	}
	return p.ToleranceFactor * crossingTime(col.Length()/float64(m), col.VOD)
}

// 爆轰波穿过一段长度所需时间（ms）
func crossingTime(length, vod float64) float64 {
	return length / vod * model.MsPerSecond
}

// 补齐单元数
func (p Params) resolve(col model.ChargeColumn) model.ChargeColumn {
	if col.NumElements == 0 {
		col.NumElements = p.NumElements
	}
	return col
}
