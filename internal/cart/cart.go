// Package cart 购物车：按 (商品, 规格) 唯一的行集合，每次变更整体持久化
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/pricing"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")
	ErrLineNotFound    = errors.New("cart: line index out of range")
	ErrInvalidOption   = errors.New("cart: option not offered by product")
	ErrProductMissing  = errors.New("cart: product is required")
)

// Line 购物车行，单价为加入时按会员等级解析的快照
type Line struct {
	ProductID uint         `json:"product_id"`
	SKU       string       `json:"sku"`
	Name      string       `json:"name"`
	Option    string       `json:"option"`
	UnitPrice models.Money `json:"unit_price"`
	Quantity  int          `json:"quantity"`
	AddedAt   time.Time    `json:"added_at"`
}

// Key 行的唯一键
func (l Line) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Option: l.Option}
}

// Amount 行小计
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineKey (商品, 规格) 组合
type LineKey struct {
	ProductID uint   `json:"product_id"`
	Option    string `json:"option"`
}

// Store 单个购物车
type Store struct {
	mu      sync.Mutex
	key     string
	storage Storage
	lines   []Line
	now     func() time.Time
}

// Open 从存储加载购物车，不存在时返回空车
func Open(ctx context.Context, storage Storage, key string) (*Store, error) {
	if storage == nil {
		return nil, errors.New("cart: storage is required")
	}
	payload, err := storage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}
	var lines []Line
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &lines); err != nil {
			return nil, fmt.Errorf("decode cart %s: %w", key, err)
		}
	}
	return &Store{
		key:     key,
		storage: storage,
		lines:   lines,
		now:     time.Now,
	}, nil
}

// AddLine 加入购物车：已存在同一 (商品, 规格) 时累加数量并刷新为当前等级价
// 此处不检查库存，库存只在下单时校验
func (s *Store) AddLine(ctx context.Context, product *models.Product, tier, option string, qty int) error {
	if product == nil {
		return ErrProductMissing
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !product.HasOption(option) {
		return ErrInvalidOption
	}
	price := models.NewMoneyFromDecimal(pricing.UnitPrice(product, tier))

	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		for i := range lines {
			if lines[i].ProductID == product.ID && lines[i].Option == option {
				lines[i].Quantity += qty
				lines[i].UnitPrice = price
				lines[i].Name = product.Name
				lines[i].SKU = product.SKU
				return lines, nil
			}
		}
		return append(lines, Line{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Option:    option,
			UnitPrice: price,
			Quantity:  qty,
			AddedAt:   s.now(),
		}), nil
	})
}

// UpdateQuantity 调整数量，结果最小为 1（移除需显式调用 RemoveLine）
func (s *Store) UpdateQuantity(ctx context.Context, index, delta int) error {
	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		if index < 0 || index >= len(lines) {
			return nil, ErrLineNotFound
		}
		next := lines[index].Quantity + delta
		if next < 1 {
			next = 1
		}
		lines[index].Quantity = next
		return lines, nil
	})
}

// RemoveLine 删除指定行
func (s *Store) RemoveLine(ctx context.Context, index int) error {
	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		if index < 0 || index >= len(lines) {
			return nil, ErrLineNotFound
		}
		return append(lines[:index], lines[index+1:]...), nil
	})
}

// Clear 清空购物车
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func([]Line) ([]Line, error) {
		return nil, nil
	})
}

// RemovePurchased 下单成功后移除已购买的行，未购买的行保留
func (s *Store) RemovePurchased(ctx context.Context, keys []LineKey) error {
	if len(keys) == 0 {
		return nil
	}
	purchased := make(map[LineKey]struct{}, len(keys))
	for _, key := range keys {
		purchased[key] = struct{}{}
	}
	return s.mutate(ctx, func(lines []Line) ([]Line, error) {
		kept := lines[:0]
		for _, line := range lines {
			if _, ok := purchased[line.Key()]; ok {
				continue
			}
			kept = append(kept, line)
		}
		return kept, nil
	})
}

// Lines 返回行副本
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Select 按下标挑选结账行，忽略越界与重复下标
func (s *Store) Select(indexes []int) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int]struct{}, len(indexes))
	selected := make([]Line, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(s.lines) {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		selected = append(selected, s.lines[idx])
	}
	return selected
}

// Total Σ 单价 × 数量
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Amount())
	}
	return total.Round(2)
}

// Count Σ 数量
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// mutate 在副本上修改并持久化，持久化失败时内存状态保持不变
func (s *Store) mutate(ctx context.Context, fn func([]Line) ([]Line, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(cloneLines(s.lines))
	if err != nil {
		return err
	}
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", s.key, err)
	}
	if err := s.storage.Save(ctx, s.key, payload); err != nil {
		return fmt.Errorf("save cart %s: %w", s.key, err)
	}
	s.lines = next
	return nil
}

func cloneLines(lines []Line) []Line {
	if len(lines) == 0 {
		return []Line{}
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
