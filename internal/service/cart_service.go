package service

import (
	"context"
	"errors"
	"sync"

	"github.com/kuajing-shop/internal/cart"
	"github.com/kuajing-shop/internal/models"
	"github.com/kuajing-shop/internal/repository"
)

// CartView 购物车视图
type CartView struct {
	Lines []cart.Line  `json:"lines"`
	Total models.Money `json:"total"`
	Count int          `json:"count"`
}

// CartService 用户购物车服务
type CartService struct {
	storage     cart.Storage
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	locks       sync.Map // userID -> *sync.Mutex
}

// NewCartService 创建购物车服务
func NewCartService(storage cart.Storage, productRepo repository.ProductRepository, userRepo repository.UserRepository) *CartService {
	return &CartService{
		storage:     storage,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// View 获取购物车
func (s *CartService) View(ctx context.Context, userID uint) (*CartView, error) {
	var view *CartView
	err := s.withCart(ctx, userID, func(store *cart.Store) error {
		view = buildCartView(store)
		return nil
	})
	return view, err
}

// AddLine 加入商品，单价按用户当前等级快照
func (s *CartService) AddLine(ctx context.Context, userID, productID uint, option string, qty int) (*CartView, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsListed {
		return nil, ErrProductUnavailable
	}

	var view *CartView
	err = s.withCart(ctx, userID, func(store *cart.Store) error {
		if err := store.AddLine(ctx, product, user.Tier, option, qty); err != nil {
			return mapCartError(err)
		}
		view = buildCartView(store)
		return nil
	})
	return view, err
}

// UpdateQuantity 调整行数量
func (s *CartService) UpdateQuantity(ctx context.Context, userID uint, index, delta int) (*CartView, error) {
	var view *CartView
	err := s.withCart(ctx, userID, func(store *cart.Store) error {
		if err := store.UpdateQuantity(ctx, index, delta); err != nil {
			return mapCartError(err)
		}
		view = buildCartView(store)
		return nil
	})
	return view, err
}

// RemoveLine 移除行
func (s *CartService) RemoveLine(ctx context.Context, userID uint, index int) (*CartView, error) {
	var view *CartView
	err := s.withCart(ctx, userID, func(store *cart.Store) error {
		if err := store.RemoveLine(ctx, index); err != nil {
			return mapCartError(err)
		}
		view = buildCartView(store)
		return nil
	})
	return view, err
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.withCart(ctx, userID, func(store *cart.Store) error {
		return store.Clear(ctx)
	})
}

// Select 按下标挑选结账行，未选中任何有效行时返回 ErrEmptySelection
func (s *CartService) Select(ctx context.Context, userID uint, indexes []int) ([]cart.Line, error) {
	var lines []cart.Line
	err := s.withCart(ctx, userID, func(store *cart.Store) error {
		lines = store.Select(indexes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptySelection
	}
	return lines, nil
}

// RemovePurchased 移除已下单的行，未购买的行保留
func (s *CartService) RemovePurchased(ctx context.Context, userID uint, keys []cart.LineKey) error {
	if len(keys) == 0 {
		return nil
	}
	return s.withCart(ctx, userID, func(store *cart.Store) error {
		return store.RemovePurchased(ctx, keys)
	})
}

// withCart 串行化同一用户的购物车读改写
func (s *CartService) withCart(ctx context.Context, userID uint, fn func(store *cart.Store) error) error {
	if userID == 0 {
		return ErrNotAuthenticated
	}
	value, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	store, err := cart.Open(ctx, s.storage, cart.KeyForUser(userID))
	if err != nil {
		return err
	}
	return fn(store)
}

func buildCartView(store *cart.Store) *CartView {
	return &CartView{
		Lines: store.Lines(),
		Total: models.NewMoneyFromDecimal(store.Total()),
		Count: store.Count(),
	}
}

func mapCartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return ErrInvalidQuantity
	case errors.Is(err, cart.ErrInvalidOption):
		return ErrInvalidOption
	case errors.Is(err, cart.ErrLineNotFound):
		return ErrCartLineNotFound
	case errors.Is(err, cart.ErrProductMissing):
		return ErrProductNotFound
	default:
		return err
	}
}

// cartLineKeys 提取行键
func cartLineKeys(lines []cart.Line) []cart.LineKey {
	keys := make([]cart.LineKey, 0, len(lines))
	for _, line := range lines {
		keys = append(keys, line.Key())
	}
	return keys
}
