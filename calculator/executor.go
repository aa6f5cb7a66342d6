package calculator

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"blastfield/model"
)

// 批量计算任务，每个炮孔一个
type Job struct {
	Row    int
	HoleID string
	Column model.ChargeColumn
}

type HoleResult struct {
	Row    int
	HoleID string
	Result *Result // 失败时为 nil
	Err    error
}

// 按炮孔分配任务，worker 之间不共享可变状态
type executor struct {
	workers      int
	dispatchChan chan task
}

type task struct {
	index int
	job   Job
}

func newExecutor(workers int) *executor {
	return &executor{
		workers:      workers,
		dispatchChan: make(chan task, workers*2),
	}
}

// 计算所有炮孔，结果与 jobs 一一对应
// 单个炮孔的失败不会中断其他炮孔
func (c *ColumnCalculator) Batch(ctx context.Context, jobs []Job) []HoleResult {
	start := time.Now()
	e := newExecutor(c.workers)
	results := make([]HoleResult, len(jobs))

	var wg sync.WaitGroup
	wg.Add(e.workers)
	for w := 0; w < e.workers; w++ {
		go func() {
			defer wg.Done()
			for t := range e.dispatchChan {
				results[t.index] = c.runJob(ctx, t.job)
			}
		}()
	}

DISPATCH:
	for i, j := range jobs {
		select {
		case <-ctx.Done():
			for k := i; k < len(jobs); k++ {
				results[k] = cancelled(jobs[k], ctx.Err())
			}
			break DISPATCH
		case e.dispatchChan <- task{index: i, job: j}:
		}
	}
	close(e.dispatchChan)
	wg.Wait()

	failed, degraded := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else if r.Result.Degraded {
			degraded++
		}
	}
	log.WithFields(log.Fields{
		"holes":    humanize.Comma(int64(len(jobs))),
		"failed":   failed,
		"degraded": degraded,
		"workers":  e.workers,
		"cost":     time.Since(start),
	}).Info("批量计算完成")
	return results
}

func cancelled(j Job, err error) HoleResult {
	return HoleResult{Row: j.Row, HoleID: j.HoleID, Err: &HoleError{Row: j.Row, HoleID: j.HoleID, Err: err}}
}

func (c *ColumnCalculator) runJob(ctx context.Context, j Job) HoleResult {
	if err := ctx.Err(); err != nil {
		return cancelled(j, err)
	}
	res, err := c.Simulate(j.Column)
	if errors.Is(err, ErrInvariantViolation) {
		log.WithFields(log.Fields{"hole": j.HoleID, "row": j.Row}).WithError(err).Error("能量守恒校验失败，降级计算")
		res, err = c.SimulateDegraded(j.Column)
	}
	if err != nil {
		log.WithFields(log.Fields{"hole": j.HoleID, "row": j.Row}).WithError(err).Warn("炮孔计算失败，跳过")
		return HoleResult{Row: j.Row, HoleID: j.HoleID, Err: &HoleError{Row: j.Row, HoleID: j.HoleID, Err: err}}
	}
	return HoleResult{Row: j.Row, HoleID: j.HoleID, Result: res}
}
