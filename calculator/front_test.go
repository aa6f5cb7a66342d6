package calculator

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"blastfield/model"
)

// 装药长度 10m，200kg，爆速 4500m/s，10 个单元
func column(primers ...model.Primer) model.ChargeColumn {
	return model.ChargeColumn{
		ChargeTopDepth:  2,
		ChargeBaseDepth: 12,
		TotalMass:       200,
		VOD:             4500,
		NumElements:     10,
		Primers:         primers,
	}
}

// 逐个药包计算到达单元边界的时间，取最小值
func bruteForceTimes(col model.ChargeColumn) []float64 {
	l := col.Length()
	h := l / float64(col.NumElements)
	res := make([]float64, col.NumElements)
	for i := range res {
		top, base := l-float64(i+1)*h, l-float64(i)*h
		best := math.Inf(1)
		for _, p := range col.Primers {
			d := 0.0
			if p.Depth < top {
				d = top - p.Depth
			} else if p.Depth > base {
				d = p.Depth - base
			}
			if t := p.FireTime + d/col.VOD*1000; t < best {
				best = t
			}
		}
		res[i] = best
	}
	return res
}

func detTimes(t *testing.T, col model.ChargeColumn) []model.Element {
	t.Helper()
	elements, err := Discretize(col)
	if err != nil {
		t.Fatalf("Discretize: %v", err)
	}
	if err := DetonationTimes(col, elements); err != nil {
		t.Fatalf("DetonationTimes: %v", err)
	}
	return elements
}

func TestCollisionsSymmetric(t *testing.T) {
	col := column(model.Primer{Depth: 3}, model.Primer{Depth: 7})
	cs, err := Collisions(col)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 1 {
		t.Fatalf("got %d collisions, want 1", len(cs))
	}
	if cs[0].Depth != 5 || !cs[0].Blocking {
		t.Errorf("collision = %+v, want depth 5 blocking", cs[0])
	}
}

func TestCollisionsUnsortedInput(t *testing.T) {
	col := column(model.Primer{Depth: 8, FireTime: 1}, model.Primer{Depth: 2})
	cs, err := Collisions(col)
	if err != nil {
		t.Fatal(err)
	}
	// (2+8)/2 + 4500*(1-0)/2000
	if want := 5 + 2.25; math.Abs(cs[0].Depth-want) > 1e-12 {
		t.Errorf("collision depth = %v, want %v", cs[0].Depth, want)
	}
}

func TestCollisionsOutsideInterval(t *testing.T) {
	col := column(model.Primer{Depth: 2}, model.Primer{Depth: 8, FireTime: 10})
	cs, err := Collisions(col)
	if err != nil {
		t.Fatal(err)
	}
	if cs[0].Blocking {
		t.Errorf("collision at %v should not block", cs[0].Depth)
	}
	if cs[0].Depth <= 8 {
		t.Errorf("collision depth %v should lie beyond the deeper primer", cs[0].Depth)
	}
}

func TestOwnedIntervalsCoverColumn(t *testing.T) {
	col := column(
		model.Primer{Depth: 9, FireTime: 1},
		model.Primer{Depth: 1, FireTime: 0},
		model.Primer{Depth: 5, FireTime: 30},
	)
	ivs, err := OwnedIntervals(col)
	if err != nil {
		t.Fatal(err)
	}
	if len(ivs) != 6 {
		t.Fatalf("got %d intervals, want 6", len(ivs))
	}
	if ivs[0].From != 0 || ivs[len(ivs)-1].To != col.Length() {
		t.Errorf("intervals span [%v, %v], want [0, %v]", ivs[0].From, ivs[len(ivs)-1].To, col.Length())
	}
	for i, iv := range ivs {
		if iv.From > iv.To {
			t.Errorf("interval %d inverted: %+v", i, iv)
		}
		if i > 0 && ivs[i-1].To != iv.From {
			t.Errorf("interval %d does not start where %d ends: %v != %v", i, i-1, iv.From, ivs[i-1].To)
		}
		wantDir := Up
		if i%2 == 1 {
			wantDir = Down
		}
		if iv.Direction != wantDir || iv.Primer != i/2 {
			t.Errorf("interval %d = primer %d %v, want primer %d %v", i, iv.Primer, iv.Direction, i/2, wantDir)
		}
	}
	// 5m 处的药包 30ms 才起爆，早已被 1m 处药包的波越过
	if ivs[2].To-ivs[2].From > 1e-9 {
		t.Errorf("overrun primer up-front should own nothing, got %+v", ivs[2])
	}
	if ivs[2].Initiator != 0 || ivs[3].Initiator != 0 {
		t.Errorf("overrun primer should be initiated by primer 0, got %d / %d", ivs[2].Initiator, ivs[3].Initiator)
	}
}

func TestDetonationTimesSingleBasePrimer(t *testing.T) {
	col := column(model.Primer{Depth: 10})
	elements := detTimes(t, col)
	for i, e := range elements {
		want := float64(i) / 4500 * 1000
		if math.Abs(e.DetTime-want) > 1e-9 {
			t.Errorf("element %d det time = %v, want %v", i, e.DetTime, want)
		}
		if e.Source != 0 {
			t.Errorf("element %d source = %d, want 0", i, e.Source)
		}
	}
}

// 深部药包起爆时间远晚于浅部药包：对撞点落在区间外，深部药包不阻挡浅部的波
func TestDetonationTimesLargeOffsetNoBlocking(t *testing.T) {
	early := model.Primer{Depth: 2, FireTime: 0}
	late := model.Primer{Depth: 8, FireTime: 100}
	elements := detTimes(t, column(early, late))
	alone := detTimes(t, column(early))
	for i := range elements {
		if math.Abs(elements[i].DetTime-alone[i].DetTime) > 1e-9 {
			t.Errorf("element %d det time = %v, want %v (late primer ignored)", i, elements[i].DetTime, alone[i].DetTime)
		}
		if elements[i].Source != 0 {
			t.Errorf("element %d source = %d, want shallow primer", i, elements[i].Source)
		}
	}
}

func TestDetonationTimesLargeOffsetReversed(t *testing.T) {
	late := model.Primer{Depth: 2, FireTime: 100}
	early := model.Primer{Depth: 8, FireTime: 0}
	elements := detTimes(t, column(late, early))
	alone := detTimes(t, column(early))
	for i := range elements {
		if math.Abs(elements[i].DetTime-alone[i].DetTime) > 1e-9 {
			t.Errorf("element %d det time = %v, want %v (late primer ignored)", i, elements[i].DetTime, alone[i].DetTime)
		}
		if elements[i].Source != 1 {
			t.Errorf("element %d source = %d, want deep primer", i, elements[i].Source)
		}
	}
}

// 稍晚起爆但仍在对撞区间内：两道波在对撞点相遇
func TestDetonationTimesSmallOffsetBlocks(t *testing.T) {
	col := column(model.Primer{Depth: 2, FireTime: 0}, model.Primer{Depth: 8, FireTime: 0.2})
	elements := detTimes(t, col)
	cs, _ := Collisions(col)
	if !cs[0].Blocking {
		t.Fatalf("collision %+v should block", cs[0])
	}
	for _, e := range elements {
		wantSource := 0
		if e.CentreDepth > cs[0].Depth {
			wantSource = 1
		}
		if e.Source != wantSource {
			t.Errorf("element at %v: source %d, want %d (collision at %v)", e.CentreDepth, e.Source, wantSource, cs[0].Depth)
		}
	}
}

func TestDetonationTimesMatchBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		col := column()
		col.NumElements = 1 + r.Intn(200)
		for p := 0; p < 1+r.Intn(4); p++ {
			col.Primers = append(col.Primers, model.Primer{
				Depth:    r.Float64() * col.Length(),
				FireTime: r.Float64() * 5,
			})
		}
		elements := detTimes(t, col)
		want := bruteForceTimes(col)
		for i, e := range elements {
			if math.Abs(e.DetTime-want[i]) > 1e-9 {
				t.Fatalf("case %d element %d: det time %v, want %v (primers %+v)", n, i, e.DetTime, want[i], col.Primers)
			}
		}
	}
}

func TestValidateColumn(t *testing.T) {
	cases := []struct {
		name string
		col  model.ChargeColumn
		want error
	}{
		{"no primers", column(), ErrConfiguration},
		{"zero vod", func() model.ChargeColumn { c := column(model.Primer{Depth: 1}); c.VOD = 0; return c }(), ErrConfiguration},
		{"negative length", func() model.ChargeColumn { c := column(model.Primer{Depth: 1}); c.ChargeBaseDepth = 1; return c }(), ErrConfiguration},
		{"primer below base", column(model.Primer{Depth: 10.5}), ErrConfiguration},
		{"primer above top", column(model.Primer{Depth: -0.1}), ErrConfiguration},
		{"no elements", func() model.ChargeColumn { c := column(model.Primer{Depth: 1}); c.NumElements = 0; return c }(), ErrConfiguration},
		{"nan fire time", column(model.Primer{Depth: 1, FireTime: math.NaN()}), ErrNumericDegeneracy},
		{"nan mass", func() model.ChargeColumn { c := column(model.Primer{Depth: 1}); c.TotalMass = math.NaN(); return c }(), ErrNumericDegeneracy},
		{"infinite vod", func() model.ChargeColumn { c := column(model.Primer{Depth: 1}); c.VOD = math.Inf(1); return c }(), ErrNumericDegeneracy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateColumn(tc.col)
			if !errors.Is(err, tc.want) {
				t.Errorf("validateColumn = %v, want %v", err, tc.want)
			}
		})
	}
	if err := validateColumn(column(model.Primer{Depth: 0}, model.Primer{Depth: 10})); err != nil {
		t.Errorf("primers at both ends should be valid: %v", err)
	}
}
