package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/kuajing-shop/internal/cache"
	"github.com/kuajing-shop/internal/logger"
)

const (
	orderNoLayout     = "20060102150405"
	orderNoSuffixSize = 1000
	orderNoSeqTTL     = 2 * time.Second
)

// OrderNoAllocator 订单号分配器：YYYYMMDDHHMMSS + 3 位序号
// Redis 可用时按秒 INCR 取序号；不可用时使用进程内计数（随机起点），冲突由唯一索引兜底重试
type OrderNoAllocator struct {
	loc *time.Location
	now func() time.Time

	mu     sync.Mutex
	second int64
	seq    int64
}

// NewOrderNoAllocator 创建订单号分配器
func NewOrderNoAllocator(loc *time.Location) *OrderNoAllocator {
	if loc == nil {
		loc = time.FixedZone("UTC+8", 8*60*60)
	}
	return &OrderNoAllocator{loc: loc, now: time.Now}
}

// Next 分配下一个订单号
func (a *OrderNoAllocator) Next(ctx context.Context) string {
	now := a.now().In(a.loc)
	stamp := now.Format(orderNoLayout)
	if cache.Enabled() {
		n, err := cache.Incr(ctx, "order_no:"+stamp, orderNoSeqTTL)
		if err == nil {
			return formatOrderNo(stamp, n-1)
		}
		logger.Warnw("order_no_redis_sequence_failed", "stamp", stamp, "error", err)
	}
	return formatOrderNo(stamp, a.localSeq(now.Unix()))
}

func (a *OrderNoAllocator) localSeq(second int64) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if second != a.second {
		a.second = second
		a.seq = randomInt64(orderNoSuffixSize)
		return a.seq
	}
	a.seq++
	return a.seq
}

func formatOrderNo(stamp string, seq int64) string {
	return fmt.Sprintf("%s%03d", stamp, seq%orderNoSuffixSize)
}

func randomInt64(limit int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(limit))
	if err != nil {
		return time.Now().UnixNano() % limit
	}
	return n.Int64()
}
