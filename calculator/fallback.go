package calculator

import (
	log "github.com/sirupsen/logrus"

	"blastfield/model"
)

// 能量守恒校验失败时的降级方案：只保留最早起爆的药包（同时起爆取最浅的）
func (c *ColumnCalculator) SimulateDegraded(col model.ChargeColumn) (*Result, error) {
	col = c.params.resolve(col)
	if err := validateColumn(col); err != nil {
		return nil, err
	}
	primers := sortPrimers(col.Primers)
	first := primers[0]
	for _, p := range primers[1:] {
		if p.FireTime < first.FireTime {
			first = p
		}
	}
	single := col
	single.Primers = []model.Primer{first}
	log.WithFields(log.Fields{
		"primers":  len(col.Primers),
		"depth":    first.Depth,
		"fireTime": first.FireTime,
	}).Warn("使用单药包降级计算")

	res, err := c.Simulate(single)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}
