package order

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/order"
)

// fakeBackend 内存后端:同时实现Gateway和Repository
// 用快照/恢复模拟事务回滚,验证"预占与落库同生共死"
type fakeBackend struct {
	mu     sync.Mutex
	stocks map[string]int
	prices map[string]decimal.Decimal
	orders map[string]*order.Order
	items  map[string][]*order.OrderItem // orderID → 明细

	failCreate error // 注入落库失败
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		stocks: make(map[string]int),
		prices: make(map[string]decimal.Decimal),
		orders: make(map[string]*order.Order),
		items:  make(map[string][]*order.OrderItem),
	}
}

func (b *fakeBackend) addBook(id string, price string, stock int) {
	b.stocks[id] = stock
	b.prices[id] = decimal.RequireFromString(price)
}

func (b *fakeBackend) deleteBook(id string) {
	delete(b.stocks, id)
	delete(b.prices, id)
}

// --- order.Gateway ---

func (b *fakeBackend) GetBookStock(_ context.Context, bookID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stock, ok := b.stocks[bookID]
	if !ok {
		return 0, book.ErrBookNotFound
	}
	return stock, nil
}

func (b *fakeBackend) GetBookPrice(_ context.Context, bookID string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	price, ok := b.prices[bookID]
	if !ok {
		return decimal.Zero, book.ErrBookNotFound
	}
	return price, nil
}

func (b *fakeBackend) DecrBookStock(_ context.Context, bookID string, quantity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stock, ok := b.stocks[bookID]
	if !ok {
		return book.ErrBookNotFound
	}
	if stock < quantity {
		return book.ErrInsufficientStock
	}
	b.stocks[bookID] = stock - quantity
	return nil
}

func (b *fakeBackend) ListItemsByOrderID(_ context.Context, orderID string) ([]*order.OrderItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*order.OrderItem, 0, len(b.items[orderID]))
	for _, item := range b.items[orderID] {
		cp := *item
		cp.NetAmount = nil
		out = append(out, &cp)
	}
	return out, nil
}

// --- order.Repository ---

func (b *fakeBackend) Create(_ context.Context, o *order.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failCreate != nil {
		return b.failCreate
	}
	cp := *o
	cp.Items = nil
	b.orders[o.ID] = &cp
	for _, item := range o.Items {
		ic := *item
		ic.NetAmount = nil
		b.items[o.ID] = append(b.items[o.ID], &ic)
	}
	return nil
}

func (b *fakeBackend) AddItems(_ context.Context, orderID string, items []*order.OrderItem) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.orders[orderID]; !ok {
		return order.ErrOrderNotFound
	}
	for _, item := range items {
		ic := *item
		ic.NetAmount = nil
		b.items[orderID] = append(b.items[orderID], &ic)
	}
	return nil
}

func (b *fakeBackend) FindByID(_ context.Context, id string) (*order.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return b.loadOrder(o), nil
}

func (b *fakeBackend) FindByOrderNo(_ context.Context, orderNo string) (*order.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if o.OrderNo == orderNo {
			return b.loadOrder(o), nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (b *fakeBackend) List(_ context.Context, page, pageSize int) ([]*order.Order, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := make([]*order.Order, 0, len(b.orders))
	for _, o := range b.orders {
		all = append(all, b.loadOrder(o))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OrderNo < all[j].OrderNo })
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// loadOrder 返回订单副本(含明细副本),模拟每次读取都是新实体
func (b *fakeBackend) loadOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = nil
	for _, item := range b.items[o.ID] {
		ic := *item
		ic.NetAmount = nil
		cp.Items = append(cp.Items, &ic)
	}
	return &cp
}

// fakeTxManager 快照/恢复事务:fn失败时整个后端状态回滚
type fakeTxManager struct {
	backend *fakeBackend
}

func (tm *fakeTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := tm.snapshot()
	if err := fn(ctx); err != nil {
		tm.restore(snap)
		return err
	}
	return nil
}

type backendSnapshot struct {
	stocks map[string]int
	prices map[string]decimal.Decimal
	orders map[string]*order.Order
	items  map[string][]*order.OrderItem
}

func (tm *fakeTxManager) snapshot() backendSnapshot {
	b := tm.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := backendSnapshot{
		stocks: make(map[string]int, len(b.stocks)),
		prices: make(map[string]decimal.Decimal, len(b.prices)),
		orders: make(map[string]*order.Order, len(b.orders)),
		items:  make(map[string][]*order.OrderItem, len(b.items)),
	}
	for k, v := range b.stocks {
		snap.stocks[k] = v
	}
	for k, v := range b.prices {
		snap.prices[k] = v
	}
	for k, v := range b.orders {
		cp := *v
		snap.orders[k] = &cp
	}
	for k, v := range b.items {
		cps := make([]*order.OrderItem, len(v))
		for i, item := range v {
			ic := *item
			cps[i] = &ic
		}
		snap.items[k] = cps
	}
	return snap
}

func (tm *fakeTxManager) restore(snap backendSnapshot) {
	b := tm.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stocks = snap.stocks
	b.prices = snap.prices
	b.orders = snap.orders
	b.items = snap.items
}

// fakeIdemStore 内存幂等键存储
type fakeIdemStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{data: make(map[string]string)}
}

func (s *fakeIdemStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *fakeIdemStore) Put(_ context.Context, key, orderNo string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = orderNo
	return true, nil
}

// fakeMessagePublisher 记录发布的消息
type fakeMessagePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

type publishedMessage struct {
	routingKey string
	message    interface{}
}

func (p *fakeMessagePublisher) Publish(_ context.Context, routingKey string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, publishedMessage{routingKey: routingKey, message: message})
	return nil
}
