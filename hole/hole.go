package hole

import (
	"math"

	log "github.com/sirupsen/logrus"

	"blastfield/model"
	"blastfield/packer"
)

// 炮孔设计 + 装药参数
// 任何参数修改都会使已生成的装药柱失效，需要整体重新计算

// 炸药
type Explosive struct {
	Name    string  `json:"name"`
	Density float64 `json:"density"` // kg/m3
	VOD     float64 `json:"vod"`     // m/s
}

type Design struct {
	ID          string         `json:"id"`
	Collar      model.Vec3     `json:"collar"`
	Axis        model.Vec3     `json:"axis"`         // 指向孔底
	Length      float64        `json:"length"`       // 孔深 m
	Diameter    float64        `json:"diameter"`     // 孔径 mm
	Stemming    float64        `json:"stemming"`     // 堵塞长度 m
	ToeDeck     float64        `json:"toe_deck"`     // 孔底不装药长度 m
	Explosive   Explosive      `json:"explosive"`
	Primers     []model.Primer `json:"primers"`      // 距装药顶部
	NumElements int            `json:"num_elements"` // 0 使用默认值
}

type Hole struct {
	design Design
	column *model.ChargeColumn
}

func NewHole(design Design) *Hole {
	h := &Hole{design: design}
	h.design.Axis = normalize(design.Axis)
	return h
}

func (h *Hole) ID() string {
	return h.design.ID
}

func (h *Hole) Design() Design {
	return h.design
}

// 装药柱，按需生成
func (h *Hole) Column() model.ChargeColumn {
	if h.column == nil {
		d := h.design
		top := d.Stemming
		base := d.Length - d.ToeDeck
		radius := d.Diameter / 1000 / 2
		col := model.ChargeColumn{
			ChargeTopDepth:  top,
			ChargeBaseDepth: base,
			TotalMass:       d.Explosive.Density * math.Pi * radius * radius * (base - top),
			VOD:             d.Explosive.VOD,
			NumElements:     d.NumElements,
			Primers:         append([]model.Primer(nil), d.Primers...),
		}
		h.column = &col
	}
	return *h.column
}

func (h *Hole) Meta() model.HoleMeta {
	return model.HoleMeta{ID: h.design.ID, Collar: h.design.Collar, Axis: h.design.Axis}
}

// 场值计算所需的几何信息，numElements 为实际离散的单元数
func (h *Hole) Geometry(numElements int) packer.Geometry {
	col := h.Column()
	return packer.Geometry{
		Meta:           h.Meta(),
		ChargeTopDepth: col.ChargeTopDepth,
		ChargeLength:   col.Length(),
		NumElements:    numElements,
	}
}

func (h *Hole) invalidate() {
	h.column = nil
}

func (h *Hole) SetCharging(stemming, toeDeck float64) {
	h.design.Stemming = stemming
	h.design.ToeDeck = toeDeck
	h.invalidate()
	log.WithFields(log.Fields{
		"hole":     h.design.ID,
		"Stemming": stemming,
		"ToeDeck":  toeDeck,
	}).Info("设置装药段")
}

func (h *Hole) SetExplosive(e Explosive) {
	h.design.Explosive = e
	h.invalidate()
	log.WithFields(log.Fields{
		"hole":    h.design.ID,
		"Name":    e.Name,
		"Density": e.Density,
		"VOD":     e.VOD,
	}).Info("设置炸药")
}

func (h *Hole) SetPrimers(primers []model.Primer) {
	h.design.Primers = append([]model.Primer(nil), primers...)
	h.invalidate()
	log.WithFields(log.Fields{
		"hole":    h.design.ID,
		"Primers": len(primers),
	}).Info("设置起爆药包")
}

func (h *Hole) SetNumElements(n int) {
	h.design.NumElements = n
	h.invalidate()
	log.WithFields(log.Fields{
		"hole":        h.design.ID,
		"NumElements": n,
	}).Info("设置单元数")
}

func normalize(v model.Vec3) model.Vec3 {
	n := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if n == 0 {
		return model.Vec3{Z: -1}
	}
	return v.Scale(1 / n)
}
