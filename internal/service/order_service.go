package service

import (
	"context"

	"github.com/spec-kit/storefront-bot/internal/domain"
	"github.com/spec-kit/storefront-bot/internal/events"
	"github.com/spec-kit/storefront-bot/internal/repository"
	"github.com/spec-kit/storefront-bot/internal/wizard"
	apperrors "github.com/spec-kit/storefront-bot/pkg/util"
)

// OrderService coordinates order workflows.
type OrderService struct {
	orders     repository.OrderRepository
	catalog    repository.CatalogRepository
	dispatcher events.Dispatcher
}

// NewOrderService constructs the service.
func NewOrderService(orders repository.OrderRepository, catalog repository.CatalogRepository, dispatcher events.Dispatcher) *OrderService {
	return &OrderService{orders: orders, catalog: catalog, dispatcher: dispatcher}
}

// Place creates an order from a completed purchase draft. The item is
// re-fetched at commit time: if it vanished the commit aborts with
// NOT_FOUND and no order row is created. Price and category are copied
// from the fresh item, so later item edits never touch the order.
func (s *OrderService) Place(ctx context.Context, requesterChat int64, draft wizard.PurchaseDraft) (*domain.Order, error) {
	item, err := s.catalog.GetItem(ctx, draft.ItemID)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		RequesterChat: requesterChat,
		RequesterName: draft.FIO,
		ItemID:        item.ID,
		Variant:       draft.Variant,
		Price:         item.Price,
		CategoryID:    item.CategoryID,
		Status:        domain.OrderStatusNew,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	_ = s.dispatcher.Publish(ctx, events.New(events.EventOrderCreated, events.OrderCreatedPayload{Order: *order, Item: *item}))
	return order, nil
}

// List returns orders, optionally filtered by status.
func (s *OrderService) List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	if status != nil {
		return s.orders.ListByStatus(ctx, *status)
	}
	return s.orders.List(ctx)
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// GetWithItem returns the order joined with its item for the admin
// detail view.
func (s *OrderService) GetWithItem(ctx context.Context, id int64) (*domain.Order, *domain.Item, error) {
	return s.orders.GetWithItem(ctx, id)
}

// Resolve completes an order and notifies the requester with the admin
// reply. A second resolution returns ALREADY_RESOLVED and sends nothing.
func (s *OrderService) Resolve(ctx context.Context, id int64, reply string) error {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusNew {
		return apperrors.NewAlreadyResolved("order")
	}

	if err := s.orders.SetStatus(ctx, id, domain.OrderStatusCompleted); err != nil {
		return err
	}

	order.Status = domain.OrderStatusCompleted
	_ = s.dispatcher.Publish(ctx, events.New(events.EventOrderCompleted, events.OrderCompletedPayload{Order: *order, Reply: reply}))
	return nil
}

// Delete removes an order.
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	return s.orders.Delete(ctx, id)
}
