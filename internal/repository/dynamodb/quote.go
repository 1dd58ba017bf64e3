package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"tt2import/internal/model"
	"tt2import/internal/repository"
)

// quoteItem keeps money as decimal strings and the parsed quote as JSON;
// attributevalue cannot round-trip decimal.Decimal.
type quoteItem struct {
	PK            string  `dynamodbav:"PK"`
	SK            string  `dynamodbav:"SK"`
	ID            string  `dynamodbav:"id"`
	OrgID         string  `dynamodbav:"org_id"`
	CustomerID    string  `dynamodbav:"customer_id"`
	ImportJobID   string  `dynamodbav:"import_job_id"`
	FileName      string  `dynamodbav:"file_name"`
	Fingerprint   string  `dynamodbav:"fingerprint"`
	Source        string  `dynamodbav:"source"`
	NamedInsured  string  `dynamodbav:"named_insured"`
	EffectiveDate *string `dynamodbav:"effective_date,omitempty"`
	TotalPremium  string  `dynamodbav:"total_premium"`
	Data          string  `dynamodbav:"data"`
	CreatedAt     string  `dynamodbav:"created_at"`
}

type fingerprintItem struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	QuoteID string `dynamodbav:"quote_id"`
}

// QuoteRepository stores quotes and their fingerprint markers.
type QuoteRepository struct {
	*Store
}

// NewQuoteRepository returns a quote repository on s.
func NewQuoteRepository(s *Store) *QuoteRepository {
	return &QuoteRepository{Store: s}
}

var _ repository.QuoteRepository = (*QuoteRepository)(nil)

// Create writes the quote and its fingerprint marker in one transaction.
// The marker is overwritten when the fingerprint repeats, so it always names the latest quote.
func (r *QuoteRepository) Create(ctx context.Context, q *model.Quote) (*model.Quote, error) {
	data, err := json.Marshal(q.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal quote data: %w", err)
	}
	qav, err := attributevalue.MarshalMap(quoteItem{
		PK:            orgPK(q.OrgID),
		SK:            quoteSK(q.ID),
		ID:            q.ID,
		OrgID:         q.OrgID,
		CustomerID:    q.CustomerID,
		ImportJobID:   q.ImportJobID,
		FileName:      q.FileName,
		Fingerprint:   q.Fingerprint,
		Source:        q.Source,
		NamedInsured:  q.NamedInsured,
		EffectiveDate: q.EffectiveDate,
		TotalPremium:  q.TotalPremium.StringFixed(2),
		Data:          string(data),
		CreatedAt:     formatTime(q.CreatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal quote: %w", err)
	}
	fav, err := attributevalue.MarshalMap(fingerprintItem{
		PK:      orgPK(q.OrgID),
		SK:      fingerprintSK(q.Fingerprint),
		QuoteID: q.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal fingerprint: %w", err)
	}

	_, err = r.DB.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.Table),
				Item:                qav,
				ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(r.Table),
				Item:      fav,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("write quote: %w", err)
	}
	out := *q
	return &out, nil
}

// ExistsByFingerprint looks up the fingerprint marker.
func (r *QuoteRepository) ExistsByFingerprint(ctx context.Context, orgID, fingerprint string) (bool, error) {
	res, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.Table),
		Key:                  keyOf(orgPK(orgID), fingerprintSK(fingerprint)),
		ProjectionExpression: aws.String("PK"),
	})
	if err != nil {
		return false, fmt.Errorf("get fingerprint: %w", err)
	}
	return len(res.Item) > 0, nil
}
