package solver

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

type localSearch struct {
	cfg      Config
	calc     *Calculator
	schedule *Schedule
	selector *moveSelector
	rng      *rand.Rand
	term     *termination
	observer Observer
	logger   *slog.Logger
	started  time.Time

	best      []placement
	bestScore Score
}

type searchOutcome struct {
	steps  int
	reason TerminationReason
}

// run 反复执行 选择移动 -> 评估 -> 接受/拒绝，直到终止条件满足或 ctx 被取消。
// 返回前调度会被恢复到搜索过程中见过的最优状态。
func (ls *localSearch) run(ctx context.Context) searchOutcome {
	ls.best = ls.schedule.snapshot()
	ls.bestScore = ls.calc.Score()

	if len(ls.selector.movable) == 0 {
		if ctx.Err() != nil {
			return searchOutcome{reason: Cancelled}
		}
		return searchOutcome{reason: Plateau}
	}

	steps, sinceImprovement := 0, 0
	var reason TerminationReason
	for {
		if ctx.Err() != nil {
			reason = Cancelled
			break
		}
		if r, done := ls.term.check(steps, sinceImprovement); done {
			reason = r
			break
		}

		ls.step(ls.tolerance(steps))
		steps++
		sinceImprovement++

		current := ls.calc.Score()
		if current.Better(ls.bestScore) {
			ls.best = ls.schedule.snapshot()
			ls.bestScore = current
			sinceImprovement = 0
			ls.logger.Debug("找到更优的解", slog.Int("step", steps), slog.String("score", current.String()))
			ls.emit(steps, current)
		} else if steps%ls.cfg.ProgressInterval == 0 {
			ls.emit(steps, current)
		}
	}

	ls.calc.restore(ls.best)
	ls.emit(steps, ls.bestScore)

	return searchOutcome{steps: steps, reason: reason}
}

// step 抽取一批候选移动，提交其中结果最好且能被接受的那个
func (ls *localSearch) step(tolerance float64) {
	var chosen Move
	var chosenDelta ScoreDelta
	for range ls.cfg.SampleSize {
		m := ls.selector.next()
		if m == nil {
			continue
		}
		delta, err := ls.calc.Evaluate(m)
		if err != nil {
			continue
		}
		if chosen == nil || delta.Better(chosenDelta) {
			chosen, chosenDelta = m, delta
		}
	}

	if chosen != nil && ls.accept(chosenDelta, tolerance) {
		// 候选都是针对当前状态生成的，Evaluate 会完整恢复状态，所以这里可以直接提交
		if err := ls.calc.Commit(chosen); err != nil {
			ls.logger.Error("无法提交移动", slog.String("move", chosen.Kind().String()), slog.String("error", err.Error()))
		}
	}
}

// accept 永远不接受让硬约束变差的移动。
// 硬约束不变时软约束变差的移动以 exp(-delta/tolerance) 的概率被接受，且变差幅度不能超过容忍度。
func (ls *localSearch) accept(delta ScoreDelta, tolerance float64) bool {
	switch {
	case delta.Hard < 0:
		return true
	case delta.Hard > 0:
		return false
	case delta.Soft <= 0:
		return true
	case tolerance <= 0 || float64(delta.Soft) > tolerance:
		return false
	}
	return ls.rng.Float64() < math.Exp(-float64(delta.Soft)/tolerance)
}

// tolerance 随步数递减。只依赖步数而不依赖时间，同样的种子总能得到同样的结果。
func (ls *localSearch) tolerance(step int) float64 {
	initial := float64(ls.cfg.InitialTolerance)
	if ls.cfg.MaxSteps > 0 {
		return initial * (1 - float64(step)/float64(ls.cfg.MaxSteps))
	}
	return initial * math.Pow(0.999, float64(step))
}

func (ls *localSearch) emit(step int, score Score) {
	ls.observer.OnProgress(Progress{
		Step:      step,
		Score:     score,
		BestScore: ls.bestScore,
		Elapsed:   time.Since(ls.started),
	})
}
