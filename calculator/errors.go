package calculator

import (
	"fmt"

	"github.com/pkg/errors"
)

// 错误分类
var (
	// 输入参数不合法：无起爆药包、爆速 <= 0、装药长度 <= 0、单元数 < 1、药包位置超出装药柱
	ErrConfiguration = errors.New("calculator: invalid charge column configuration")

	// 能量守恒校验失败，说明计算逻辑有缺陷
	ErrInvariantViolation = errors.New("calculator: energy conservation violated")

	// 出现 NaN / Inf
	ErrNumericDegeneracy = errors.New("calculator: numeric degeneracy (NaN or Inf)")
)

// 单个炮孔的计算错误，批量计算时不影响其他炮孔
type HoleError struct {
	Row    int
	HoleID string
	Err    error
}

func (e *HoleError) Error() string {
	return fmt.Sprintf("hole %q (row %d): %v", e.HoleID, e.Row, e.Err)
}

func (e *HoleError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

func degeneracyErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNumericDegeneracy, format, args...)
}
