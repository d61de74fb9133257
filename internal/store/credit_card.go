package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hearthfin/hearth-backend/internal/errs"
	"github.com/hearthfin/hearth-backend/internal/models"
)

type creditCardStore struct {
	client *firestore.Client
}

func NewCreditCardStore(client *firestore.Client) *creditCardStore {
	return &creditCardStore{client: client}
}

func (s *creditCardStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("credit_cards")
}

func (s *creditCardStore) Create(ctx context.Context, uid string, card *models.CreditCard) error {
	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now
	_, err := s.collection(uid).Doc(card.CreditCardID).Create(ctx, card)
	return err
}

func (s *creditCardStore) Get(ctx context.Context, uid, creditCardID string) (*models.CreditCard, error) {
	doc, err := s.collection(uid).Doc(creditCardID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errs.NewNotFoundError("credit card " + creditCardID + " not found")
	}
	if err != nil {
		return nil, err
	}
	var card models.CreditCard
	if err := doc.DataTo(&card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *creditCardStore) List(ctx context.Context, uid string) ([]*models.CreditCard, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	cards := make([]*models.CreditCard, 0, len(docs))
	for _, d := range docs {
		var card models.CreditCard
		if err := d.DataTo(&card); err != nil {
			return nil, err
		}
		cards = append(cards, &card)
	}
	return cards, nil
}

// ListDueByBillingDay selects the active cards whose billing cycle closes on
// the given day of month.
func (s *creditCardStore) ListDueByBillingDay(ctx context.Context, uid string, day int) ([]*models.CreditCard, error) {
	docs, err := s.collection(uid).
		Where("isActive", "==", true).
		Where("billingDay", "==", day).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	cards := make([]*models.CreditCard, 0, len(docs))
	for _, d := range docs {
		var card models.CreditCard
		if err := d.DataTo(&card); err != nil {
			return nil, err
		}
		cards = append(cards, &card)
	}
	return cards, nil
}

func (s *creditCardStore) Update(ctx context.Context, uid string, card *models.CreditCard) error {
	card.UpdatedAt = time.Now()
	_, err := s.collection(uid).Doc(card.CreditCardID).Set(ctx, card)
	return err
}

func (s *creditCardStore) Delete(ctx context.Context, uid, creditCardID string) error {
	_, err := s.collection(uid).Doc(creditCardID).Delete(ctx)
	return err
}
