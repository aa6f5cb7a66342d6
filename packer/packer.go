package packer

import (
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"blastfield/calculator"
	"blastfield/model"
)

// 空单元及无有效数据炮孔的填充值
const (
	SentinelEm      = 0.0
	SentinelDetTime = -1.0

	// 每个单元两个值：Em, DetTime
	Stride = 2
)

// 一个炮孔的待打包数据，Elements 为空表示该炮孔没有有效结果
type Row struct {
	HoleID   string
	Elements []model.Element // 空间顺序
}

type Cell struct {
	Em      float64 `json:"em"`
	DetTime float64 `json:"det_time"`
}

func (c Cell) IsSentinel() bool {
	return c.Em == SentinelEm && c.DetTime == SentinelDetTime
}

// 按行优先展开的数据：炮孔 -> 单元 -> (Em, DetTime)
type Buffer struct {
	Holes       int       `json:"holes"`
	MaxElements int       `json:"max_elements"`
	HoleIDs     []string  `json:"hole_ids"`
	Data        []float64 `json:"data"`
}

// 打包一批炮孔，maxElements <= 0 时取各炮孔单元数的最大值
// 单元数超过 maxElements 的炮孔整行填充空值
func Pack(rows []Row, maxElements int) *Buffer {
	if maxElements <= 0 {
		maxElements = 0
		for _, r := range rows {
			if len(r.Elements) > maxElements {
				maxElements = len(r.Elements)
			}
		}
	}

	buf := &Buffer{
		Holes:       len(rows),
		MaxElements: maxElements,
		HoleIDs:     make([]string, len(rows)),
		Data:        make([]float64, len(rows)*maxElements*Stride),
	}
	for i := 0; i < len(buf.Data); i += Stride {
		buf.Data[i] = SentinelEm
		buf.Data[i+1] = SentinelDetTime
	}

	for h, r := range rows {
		buf.HoleIDs[h] = r.HoleID
		if len(r.Elements) > maxElements {
			log.WithFields(log.Fields{
				"hole":        r.HoleID,
				"elements":    len(r.Elements),
				"maxElements": maxElements,
			}).Warn("单元数超过上限，该炮孔不输出")
			continue
		}
		for _, e := range r.Elements {
			if err := buf.Set(h, e.Index, Cell{Em: e.Em, DetTime: e.DetTime}); err != nil {
				log.WithField("hole", r.HoleID).WithError(err).Warn("单元下标越界，该炮孔不输出")
				buf.clearRow(h)
				break
			}
		}
	}

	log.WithFields(log.Fields{
		"holes":       buf.Holes,
		"maxElements": buf.MaxElements,
		"size":        humanize.Bytes(uint64(len(buf.Data) * 8)),
	}).Debug("打包单元数据")
	return buf
}

// 批量计算结果转为打包行，失败的炮孔为空行
func Rows(results []calculator.HoleResult) []Row {
	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i].HoleID = r.HoleID
		if r.Err == nil && r.Result != nil {
			rows[i].Elements = r.Result.Elements
		}
	}
	return rows
}

func (b *Buffer) offset(hole, element int) int {
	return (hole*b.MaxElements + element) * Stride
}

// 随机访问 (hole, element)，越界返回 false
func (b *Buffer) At(hole, element int) (Cell, bool) {
	if hole < 0 || hole >= b.Holes || element < 0 || element >= b.MaxElements {
		return Cell{}, false
	}
	off := b.offset(hole, element)
	return Cell{Em: b.Data[off], DetTime: b.Data[off+1]}, true
}

func (b *Buffer) Set(hole, element int, c Cell) error {
	if hole < 0 || hole >= b.Holes || element < 0 || element >= b.MaxElements {
		return errors.Errorf("cell (%d, %d) outside %dx%d buffer", hole, element, b.Holes, b.MaxElements)
	}
	off := b.offset(hole, element)
	b.Data[off] = c.Em
	b.Data[off+1] = c.DetTime
	return nil
}

func (b *Buffer) clearRow(hole int) {
	for j := 0; j < b.MaxElements; j++ {
		b.Set(hole, j, Cell{Em: SentinelEm, DetTime: SentinelDetTime})
	}
}

func (b *Buffer) Row(hole int) []Cell {
	if hole < 0 || hole >= b.Holes {
		return nil
	}
	cells := make([]Cell, b.MaxElements)
	for j := range cells {
		cells[j], _ = b.At(hole, j)
	}
	return cells
}

// 炮孔是否有有效数据
func (b *Buffer) HasData(hole int) bool {
	for _, c := range b.Row(hole) {
		if !c.IsSentinel() {
			return true
		}
	}
	return false
}
