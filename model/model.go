package model

// 炮孔装药柱模型
// 深度单位 m，时间单位 ms，质量单位 kg，爆速单位 m/s

// 起爆药包
type Primer struct {
	Depth    float64 `json:"depth"`     // 距装药柱顶部的距离
	FireTime float64 `json:"fire_time"` // 起爆时刻，全爆区统一时间原点
}

// 装药柱，仿真输入，由炮孔设计构建后不可修改
type ChargeColumn struct {
	ChargeTopDepth  float64  `json:"charge_top_depth"`  // 装药顶部距孔口深度
	ChargeBaseDepth float64  `json:"charge_base_depth"` // 装药底部距孔口深度
	TotalMass       float64  `json:"total_mass"`
	VOD             float64  `json:"vod"`
	NumElements     int      `json:"num_elements"`
	Primers         []Primer `json:"primers"`
}

func (c ChargeColumn) Length() float64 {
	return c.ChargeBaseDepth - c.ChargeTopDepth
}

// 离散单元，每次仿真重新生成
type Element struct {
	Index       int     `json:"index"`        // 0 靠近孔底，M-1 靠近孔口
	CentreDepth float64 `json:"centre_depth"` // 距装药柱顶部
	Mass        float64 `json:"mass"`
	DetTime     float64 `json:"det_time"`
	Em          float64 `json:"em"`
	Source      int     `json:"source"` // 最先到达的起爆药包（按深度排序后的下标）
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// 炮孔元数据，供场值计算使用，核心计算不依赖
type HoleMeta struct {
	ID     string `json:"id"`
	Collar Vec3   `json:"collar"` // 孔口坐标
	Axis   Vec3   `json:"axis"`   // 孔轴单位向量，指向孔底
}

// 装药柱上某深度（距装药柱顶部）的空间坐标
func (h HoleMeta) PointAt(chargeTopDepth, depth float64) Vec3 {
	return h.Collar.Add(h.Axis.Scale(chargeTopDepth + depth))
}
