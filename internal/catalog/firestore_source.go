package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/storefront-kit/engine/internal/domain"
)

const defaultProductCollection = "products"

// ErrSourceUnavailable indicates the backing catalog store could not be reached.
var ErrSourceUnavailable = errors.New("catalog source: unavailable")

// productDocument is the Firestore shape of a catalog entry.
type productDocument struct {
	SKU         string   `firestore:"sku"`
	Name        string   `firestore:"name"`
	Description string   `firestore:"description"`
	Price       float64  `firestore:"price"`
	Image       string   `firestore:"image"`
	CategoryID  string   `firestore:"categoryId"`
	Tags        []string `firestore:"tags"`
	Stock       *int     `firestore:"stock"`
	InStock     *bool    `firestore:"inStock"`
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:          id,
		SKU:         d.SKU,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Image:       d.Image,
		CategoryID:  d.CategoryID,
		Tags:        append([]string(nil), d.Tags...),
		Stock:       d.Stock,
		InStock:     d.InStock,
	}
}

// FirestoreSource reads the product catalog from a Firestore collection.
type FirestoreSource struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreSource constructs a source over the given collection,
// defaulting to "products".
func NewFirestoreSource(client *firestore.Client, collection string) (*FirestoreSource, error) {
	if client == nil {
		return nil, errors.New("catalog source: firestore client is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultProductCollection
	}
	return &FirestoreSource{client: client, collection: collection}, nil
}

// FetchAll reads every document in the collection, using the document ID as
// the product ID.
func (s *FirestoreSource) FetchAll(ctx context.Context) ([]domain.Product, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("catalog source: not initialised")
	}

	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	var products []domain.Product
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, translateFirestoreError(err)
		}

		var payload productDocument
		if err := doc.DataTo(&payload); err != nil {
			return nil, fmt.Errorf("catalog source: decode product %s: %w", doc.Ref.ID, err)
		}
		products = append(products, payload.toDomain(doc.Ref.ID))
	}
	return products, nil
}

func translateFirestoreError(err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return fmt.Errorf("catalog source: list products: %w", err)
}
