package packer

import (
	"math"

	"blastfield/model"
)

// 炮孔几何，场值计算需要的空间信息，核心计算不持有
type Geometry struct {
	Meta           model.HoleMeta `json:"meta"`
	ChargeTopDepth float64        `json:"charge_top_depth"`
	ChargeLength   float64        `json:"charge_length"`
	NumElements    int            `json:"num_elements"`
}

// 单元中心的空间坐标
func (g Geometry) Position(element int) model.Vec3 {
	step := g.ChargeLength / float64(g.NumElements)
	centre := g.ChargeLength - (float64(element)+0.5)*step
	return g.Meta.PointAt(g.ChargeTopDepth, centre)
}

// 提供给场值计算的单元
type Source struct {
	Hole     int        `json:"hole"`
	HoleID   string     `json:"hole_id"`
	Element  int        `json:"element"`
	Em       float64    `json:"em"`
	DetTime  float64    `json:"det_time"`
	Position model.Vec3 `json:"position"`
}

func (s Source) Distance(p model.Vec3) float64 {
	d := s.Position.Sub(p)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// 列出所有有效单元，display 不为空时只保留 DetTime <= *display 的单元
// geometry 与 buffer 的炮孔行一一对应
func Sources(buf *Buffer, geometry []Geometry, display *float64) []Source {
	var res []Source
	for h := 0; h < buf.Holes && h < len(geometry); h++ {
		g := geometry[h]
		for j := 0; j < buf.MaxElements && j < g.NumElements; j++ {
			c, _ := buf.At(h, j)
			if c.IsSentinel() {
				continue
			}
			res = append(res, Source{
				Hole:     h,
				HoleID:   buf.HoleIDs[h],
				Element:  j,
				Em:       c.Em,
				DetTime:  c.DetTime,
				Position: g.Position(j),
			})
		}
	}
	if display != nil {
		res = FilterByTime(res, *display)
	}
	return res
}

// 显示时刻过滤，不修改输入
func FilterByTime(sources []Source, t float64) []Source {
	res := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s.DetTime <= t {
			res = append(res, s)
		}
	}
	return res
}
