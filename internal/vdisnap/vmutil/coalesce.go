package vmutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/rs/zerolog"
)

const (
	DefaultCoalescePollInterval = 5 * time.Second
	DefaultCoalesceMaxWait      = 10 * time.Minute
)

// CoalesceState 合并等待状态机的状态
type CoalesceState string

const (
	CoalesceStatePolling  CoalesceState = "polling"
	CoalesceStateSettled  CoalesceState = "settled"
	CoalesceStateFailed   CoalesceState = "failed"
	CoalesceStateTimedOut CoalesceState = "timed_out"
)

// CoalesceWatcher 等待存储后端把快照产生的差分链合并回稳定形态
//
// 每一轮：扫描 SR → 重新解析父磁盘 → 比较。原始父磁盘为空或当前父磁盘
// 等于原始父磁盘时认为稳定。第一轮立即执行，之后按固定间隔执行，轮与轮之间
// 不会重叠。每个 Wait 调用拥有自己的定时器。
type CoalesceWatcher struct {
	session      hypervisor.Session
	pollInterval time.Duration
	maxWait      time.Duration
	maxPolls     int
}

// CoalesceOption 配置 CoalesceWatcher
type CoalesceOption func(*CoalesceWatcher)

// WithPollInterval 设置轮询间隔
func WithPollInterval(d time.Duration) CoalesceOption {
	return func(w *CoalesceWatcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithMaxWait 设置最长等待时间，0 表示不限制
func WithMaxWait(d time.Duration) CoalesceOption {
	return func(w *CoalesceWatcher) {
		w.maxWait = d
	}
}

// WithMaxPolls 设置最多轮询次数，0 表示不限制
func WithMaxPolls(n int) CoalesceOption {
	return func(w *CoalesceWatcher) {
		w.maxPolls = n
	}
}

// NewCoalesceWatcher 创建合并等待器
func NewCoalesceWatcher(session hypervisor.Session, opts ...CoalesceOption) *CoalesceWatcher {
	w := &CoalesceWatcher{
		session:      session,
		pollInterval: DefaultCoalescePollInterval,
		maxWait:      DefaultCoalesceMaxWait,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type coalesceResult struct {
	parent string
	err    error
}

// coalesceRun 单次等待的全部状态，只在等待 goroutine 内访问
type coalesceRun struct {
	requestID      string
	sr             hypervisor.SRRef
	vdi            hypervisor.VDIRef
	originalParent string
	currentParent  string
	polls          int
	state          CoalesceState
	started        time.Time
}

// Wait 阻塞直到差分链稳定，返回磁盘当前的父磁盘 UUID（可能为空）
//
// 扫描或解析失败时立即返回该错误；超过最长等待时间或最多轮询次数时
// 返回 *CoalesceTimeoutError；ctx 取消时返回 ctx.Err()。
func (w *CoalesceWatcher) Wait(ctx context.Context, requestID string, sr hypervisor.SRRef, vdi hypervisor.VDIRef, originalParent string) (string, error) {
	run := &coalesceRun{
		requestID:      requestID,
		sr:             sr,
		vdi:            vdi,
		originalParent: originalParent,
		state:          CoalesceStatePolling,
		started:        time.Now(),
	}

	done := make(chan coalesceResult, 1)
	go w.loop(ctx, run, done)

	res := <-done
	return res.parent, res.err
}

func (w *CoalesceWatcher) loop(ctx context.Context, run *coalesceRun, done chan<- coalesceResult) {
	logger := zerolog.Ctx(ctx).With().
		Str("request_id", run.requestID).
		Str("sr", string(run.sr)).
		Str("vdi", string(run.vdi)).
		Str("original_parent", run.originalParent).
		Logger()

	loopCtx := ctx
	if w.maxWait > 0 {
		var cancel context.CancelFunc
		loopCtx, cancel = context.WithTimeout(ctx, w.maxWait)
		defer cancel()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	finish := func(state CoalesceState, err error) {
		run.state = state
		logger.Debug().
			Str("state", string(state)).
			Int("polls", run.polls).
			Dur("waited", time.Since(run.started)).
			Msg("Coalesce watcher finished")
		done <- coalesceResult{parent: run.currentParent, err: err}
	}

	for {
		run.polls++
		current, err := w.poll(loopCtx, run)
		if err != nil {
			if ctx.Err() == nil && errors.Is(loopCtx.Err(), context.DeadlineExceeded) {
				finish(CoalesceStateTimedOut, run.timeoutError())
				return
			}
			finish(CoalesceStateFailed, err)
			return
		}
		run.currentParent = current

		if run.originalParent == "" || current == run.originalParent {
			finish(CoalesceStateSettled, nil)
			return
		}

		logger.Debug().
			Str("current_parent", current).
			Int("polls", run.polls).
			Msg("Parent has not coalesced yet, waiting")

		if w.maxPolls > 0 && run.polls >= w.maxPolls {
			finish(CoalesceStateTimedOut, run.timeoutError())
			return
		}

		select {
		case <-loopCtx.Done():
			if err := ctx.Err(); err != nil {
				finish(CoalesceStateFailed, err)
				return
			}
			finish(CoalesceStateTimedOut, run.timeoutError())
			return
		case <-ticker.C:
		}
	}
}

func (w *CoalesceWatcher) poll(ctx context.Context, run *coalesceRun) (string, error) {
	if err := ScanSR(ctx, w.session, run.requestID, run.sr); err != nil {
		return "", err
	}
	parent, err := GetVHDParentUUID(ctx, w.session, run.vdi)
	if err != nil {
		return "", fmt.Errorf("resolve parent of vdi %s: %w", run.vdi, err)
	}
	return parent, nil
}

func (run *coalesceRun) timeoutError() *CoalesceTimeoutError {
	return &CoalesceTimeoutError{
		SR:             run.sr,
		VDI:            run.vdi,
		OriginalParent: run.originalParent,
		LastParent:     run.currentParent,
		Polls:          run.polls,
		Waited:         time.Since(run.started),
	}
}
