package calculator

import (
	"math"
	"sort"

	"blastfield/model"
)

// 爆轰波传播方向
type Direction int

const (
	Up   Direction = iota // 向装药顶部（深度减小）
	Down                  // 向孔底（深度增大）
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// 相邻药包的对撞点，使用原始起爆时刻
// Blocking 为 false 表示对撞点落在两药包之外：先起爆的波已经扫过整个区间，两侧互不阻挡
type Collision struct {
	Upper    int // 浅部药包（排序后下标）
	Lower    int // 深部药包
	Depth    float64
	Blocking bool
}

// 某一药包某一方向的爆轰波独占区间 [From, To]
// 区间之间互不重叠（仅端点重合），单元只需查找与其相交的区间
type Interval struct {
	Primer    int
	Direction Direction
	From      float64
	To        float64
	Origin    float64 // 药包深度
	Start     float64 // 有效起爆时刻（ms）
	Initiator int     // 实际引爆该药包的药包，被越过时为越过它的波的来源
}

func (iv Interval) arrival(top, base, vod float64) float64 {
	lo := math.Max(top, iv.From)
	hi := math.Min(base, iv.To)
	var d float64
	switch {
	case iv.Origin < lo:
		d = lo - iv.Origin
	case iv.Origin > hi:
		d = iv.Origin - hi
	}
	return iv.Start + d/vod*model.MsPerSecond
}

func validateColumn(col model.ChargeColumn) error {
	if len(col.Primers) == 0 {
		return configErrorf("no primers")
	}
	if math.IsNaN(col.VOD) || col.VOD <= 0 {
		return configErrorf("VOD %v must be positive", col.VOD)
	}
	l := col.Length()
	if math.IsNaN(l) || l <= 0 {
		return configErrorf("charge length %v must be positive", l)
	}
	if col.NumElements < 1 {
		return configErrorf("element count %d must be >= 1", col.NumElements)
	}
	if math.IsInf(col.VOD, 0) || math.IsInf(l, 0) {
		return degeneracyErrorf("VOD %v / charge length %v not finite", col.VOD, l)
	}
	if math.IsNaN(col.TotalMass) || math.IsInf(col.TotalMass, 0) || col.TotalMass <= 0 {
		return degeneracyErrorf("total mass %v must be finite and positive", col.TotalMass)
	}
	for i, p := range col.Primers {
		if math.IsNaN(p.Depth) || p.Depth < 0 || p.Depth > l {
			return configErrorf("primer %d depth %v outside [0, %v]", i, p.Depth, l)
		}
		if math.IsNaN(p.FireTime) || math.IsInf(p.FireTime, 0) {
			return degeneracyErrorf("primer %d fire time %v not finite", i, p.FireTime)
		}
	}
	return nil
}

// 按深度排序，深度相同时按起爆时刻
func sortPrimers(primers []model.Primer) []model.Primer {
	sorted := make([]model.Primer, len(primers))
	copy(sorted, primers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Depth != sorted[j].Depth {
			return sorted[i].Depth < sorted[j].Depth
		}
		return sorted[i].FireTime < sorted[j].FireTime
	})
	return sorted
}

func collisionDepth(d1, t1, d2, t2, vod float64) float64 {
	return (d1+d2)/2 + vod*(t2-t1)/(2*model.MsPerSecond)
}

// 相邻药包两两之间的对撞点
func Collisions(col model.ChargeColumn) ([]Collision, error) {
	if err := validateColumn(col); err != nil {
		return nil, err
	}
	primers := sortPrimers(col.Primers)
	res := make([]Collision, 0, len(primers)-1)
	for i := 0; i+1 < len(primers); i++ {
		p1, p2 := primers[i], primers[i+1]
		c := collisionDepth(p1.Depth, p1.FireTime, p2.Depth, p2.FireTime, col.VOD)
		res = append(res, Collision{
			Upper:    i,
			Lower:    i + 1,
			Depth:    c,
			Blocking: c >= p1.Depth && c <= p2.Depth,
		})
	}
	return res, nil
}

// 有效起爆时刻：药包自身起爆时刻与其他药包爆轰波到达时刻中的较小值
// 被先到的爆轰波越过的药包，其两侧的波等同于越过它的那道波
func effectiveFireTimes(primers []model.Primer, vod float64) ([]float64, []int) {
	times := make([]float64, len(primers))
	initiators := make([]int, len(primers))
	for i, p := range primers {
		t, src := p.FireTime, i
		for j, q := range primers {
			if j == i {
				continue
			}
			if a := q.FireTime + math.Abs(p.Depth-q.Depth)/vod*model.MsPerSecond; a < t {
				t, src = a, j
			}
		}
		times[i], initiators[i] = t, src
	}
	return times, initiators
}

// 计算每个药包每个方向的独占区间，按深度从浅到深排列
func OwnedIntervals(col model.ChargeColumn) ([]Interval, error) {
	if err := validateColumn(col); err != nil {
		return nil, err
	}
	primers := sortPrimers(col.Primers)
	starts, initiators := effectiveFireTimes(primers, col.VOD)

	intervals := make([]Interval, 0, 2*len(primers))
	from := 0.0
	for i, p := range primers {
		intervals = append(intervals, Interval{
			Primer: i, Direction: Up, From: from, To: p.Depth, Origin: p.Depth, Start: starts[i], Initiator: initiators[i],
		})
		to := col.Length()
		if i+1 < len(primers) {
			q := primers[i+1]
			// 有效起爆时刻满足三角不等式，对撞点必然落在 [p, q] 内，这里只处理舍入
			to = clamp(collisionDepth(p.Depth, starts[i], q.Depth, starts[i+1], col.VOD), p.Depth, q.Depth)
		}
		intervals = append(intervals, Interval{
			Primer: i, Direction: Down, From: p.Depth, To: to, Origin: p.Depth, Start: starts[i], Initiator: initiators[i],
		})
		from = to
	}
	return intervals, nil
}

// 计算每个单元的起爆时刻：爆轰波首次到达单元边界的时刻
// 包含药包的单元在药包起爆时刻起爆
func DetonationTimes(col model.ChargeColumn, elements []model.Element) error {
	intervals, err := OwnedIntervals(col)
	if err != nil {
		return err
	}
	l, h := col.Length(), elementLength(col)
	for k := range elements {
		idx := float64(elements[k].Index)
		top, base := l-(idx+1)*h, l-idx*h
		best, source := math.Inf(1), -1
		first := sort.Search(len(intervals), func(i int) bool { return intervals[i].To >= top })
		for i := first; i < len(intervals) && intervals[i].From <= base; i++ {
			if t := intervals[i].arrival(top, base, col.VOD); t < best {
				best, source = t, intervals[i].Initiator
			}
		}
		if source < 0 || math.IsNaN(best) || math.IsInf(best, 0) {
			return degeneracyErrorf("element %d: no finite arrival time", elements[k].Index)
		}
		elements[k].DetTime = best
		elements[k].Source = source
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
