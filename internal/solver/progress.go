package solver

import (
	"sync/atomic"
	"time"
)

// Progress 是搜索过程中的一次进度通知
type Progress struct {
	Step      int           `json:"step"`
	Score     Score         `json:"score"`
	BestScore Score         `json:"bestScore"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Observer 在搜索线程上被同步调用，实现不能阻塞
type Observer interface {
	OnProgress(p Progress)
}

type ObserverFunc func(p Progress)

func (f ObserverFunc) OnProgress(p Progress) {
	f(p)
}

// ChannelObserver 把进度写入有缓冲的 channel，缓冲区满时丢弃并计数
type ChannelObserver struct {
	ch      chan Progress
	dropped atomic.Int64
}

func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan Progress, buffer)}
}

func (o *ChannelObserver) OnProgress(p Progress) {
	select {
	case o.ch <- p:
	default:
		o.dropped.Add(1)
	}
}

func (o *ChannelObserver) C() <-chan Progress {
	return o.ch
}

func (o *ChannelObserver) Dropped() int64 {
	return o.dropped.Load()
}

// Close 只能在 Solve 返回之后调用
func (o *ChannelObserver) Close() {
	close(o.ch)
}

type nopObserver struct{}

func (nopObserver) OnProgress(Progress) {}
