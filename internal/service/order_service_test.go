package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-bot/internal/domain"
	"github.com/spec-kit/storefront-bot/internal/events"
	"github.com/spec-kit/storefront-bot/internal/wizard"
	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

// fakeCatalogRepo serves items from a map.
type fakeCatalogRepo struct {
	categories map[int64]domain.Category
	items      map[int64]domain.Item
}

func (f *fakeCatalogRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, apperrors.NewNotFound("category", nil)
	}
	return &c, nil
}

func (f *fakeCatalogRepo) ListItems(ctx context.Context, categoryID int64) ([]domain.Item, error) {
	var out []domain.Item
	for _, item := range f.items {
		if item.CategoryID == categoryID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperrors.NewNotFound("item", nil)
	}
	return &item, nil
}

// fakeOrderRepo keeps orders in memory with sequential ids.
type fakeOrderRepo struct {
	nextID int64
	orders map[int64]domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, orders: make(map[int64]domain.Order)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	f.nextID++
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, apperrors.NewNotFound("order", nil)
	}
	return &order, nil
}

func (f *fakeOrderRepo) GetWithItem(ctx context.Context, id int64) (*domain.Order, *domain.Item, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, nil, apperrors.NewNotFound("order", nil)
	}
	return &order, &domain.Item{ID: order.ItemID}, nil
}

func (f *fakeOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range f.orders {
		out = append(out, order)
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	for _, order := range f.orders {
		if order.Status == status {
			out = append(out, order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	order, ok := f.orders[id]
	if !ok {
		return apperrors.NewNotFound("order", nil)
	}
	order.Status = status
	f.orders[id] = order
	return nil
}

func (f *fakeOrderRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return apperrors.NewNotFound("order", nil)
	}
	delete(f.orders, id)
	return nil
}

func testCatalog() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		categories: map[int64]domain.Category{3: {ID: 3, Name: "Математика"}},
		items: map[int64]domain.Item{
			12: {ID: 12, Name: "Контрольная", Description: "10 задач", Price: 1500, CategoryID: 3},
		},
	}
}

func TestPlaceOrderSnapshotsPriceAndCategory(t *testing.T) {
	catalog := testCatalog()
	orders := newFakeOrderRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewOrderService(orders, catalog, dispatcher)

	order, err := svc.Place(context.Background(), 100, wizard.PurchaseDraft{
		ItemID: 12, FIO: "Ivan Petrov", Variant: "0",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), order.ID)
	require.Equal(t, int64(1500), order.Price)
	require.Equal(t, int64(3), order.CategoryID)
	require.Equal(t, domain.OrderStatusNew, order.Status)
	require.Equal(t, "Ivan Petrov", order.RequesterName)
	require.Equal(t, "0", order.Variant)

	// Later item edits must not touch the stored order.
	item := catalog.items[12]
	item.Price = 9999
	item.CategoryID = 8
	catalog.items[12] = item

	stored, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1500), stored.Price)
	require.Equal(t, int64(3), stored.CategoryID)

	require.Len(t, dispatcher.published, 1)
	require.Equal(t, events.EventOrderCreated, dispatcher.published[0].Type)
	payload := dispatcher.published[0].Payload.(events.OrderCreatedPayload)
	require.Equal(t, order.ID, payload.Order.ID)
	require.Equal(t, "Контрольная", payload.Item.Name)
}

func TestPlaceOrderMissingItemAborts(t *testing.T) {
	orders := newFakeOrderRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewOrderService(orders, testCatalog(), dispatcher)

	_, err := svc.Place(context.Background(), 100, wizard.PurchaseDraft{
		ItemID: 999, FIO: "Ivan", Variant: "0",
	})
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Empty(t, orders.orders)
	require.Empty(t, dispatcher.published)
}

func TestResolveOrderOnce(t *testing.T) {
	orders := newFakeOrderRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewOrderService(orders, testCatalog(), dispatcher)

	order, err := svc.Place(context.Background(), 100, wizard.PurchaseDraft{ItemID: 12, FIO: "Ivan", Variant: "0"})
	require.NoError(t, err)

	require.NoError(t, svc.Resolve(context.Background(), order.ID, "Готово"))

	stored, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, stored.Status)

	// Second resolution is rejected and emits nothing further.
	err = svc.Resolve(context.Background(), order.ID, "Готово снова")
	require.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyResolved))

	var completed int
	for _, event := range dispatcher.published {
		if event.Type == events.EventOrderCompleted {
			completed++
		}
	}
	require.Equal(t, 1, completed)
}

func TestResolveOrderUnknownID(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo(), testCatalog(), &recordingDispatcher{})
	err := svc.Resolve(context.Background(), 42, "x")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestDeleteOrderUnknownID(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo(), testCatalog(), &recordingDispatcher{})
	err := svc.Delete(context.Background(), 42)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
