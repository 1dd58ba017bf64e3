package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"tt2import/internal/model"
	"tt2import/internal/repository"
)

type customerItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	ID            string `dynamodbav:"id"`
	OrgID         string `dynamodbav:"org_id"`
	Name          string `dynamodbav:"name"`
	Source        string `dynamodbav:"source,omitempty"`
	DateOfBirth   string `dynamodbav:"date_of_birth,omitempty"`
	LicenseNumber string `dynamodbav:"license_number,omitempty"`
	LicenseState  string `dynamodbav:"license_state,omitempty"`
	ZipCode       string `dynamodbav:"zip_code,omitempty"`
	CreatedAt     string `dynamodbav:"created_at"`
}

// CustomerRepository stores customers under their organization's partition.
type CustomerRepository struct {
	*Store
}

// NewCustomerRepository returns a customer repository on s.
func NewCustomerRepository(s *Store) *CustomerRepository {
	return &CustomerRepository{Store: s}
}

var _ repository.CustomerRepository = (*CustomerRepository)(nil)

// FindByName queries the organization partition and filters on the exact name.
// DynamoDB applies Limit before the filter, so pages are walked until limit matches are found.
func (r *CustomerRepository) FindByName(ctx context.Context, orgID, name string, limit int) ([]model.Customer, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.Table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		FilterExpression:       aws.String("#name = :name"),
		ExpressionAttributeNames: map[string]string{
			"#name": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: orgPK(orgID)},
			":sk":   &types.AttributeValueMemberS{Value: customerSK("")},
			":name": &types.AttributeValueMemberS{Value: name},
		},
	}

	out := make([]model.Customer, 0)
	for {
		res, err := r.DB.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("query customers: %w", err)
		}
		for _, av := range res.Items {
			var it customerItem
			if err := attributevalue.UnmarshalMap(av, &it); err != nil {
				return nil, fmt.Errorf("unmarshal customer: %w", err)
			}
			c, err := it.toModel()
			if err != nil {
				return nil, err
			}
			out = append(out, c)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if len(res.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = res.LastEvaluatedKey
	}
}

// Create puts a new customer item. An existing item with the same id is never overwritten.
func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	it := customerItem{
		PK:            orgPK(c.OrgID),
		SK:            customerSK(c.ID),
		ID:            c.ID,
		OrgID:         c.OrgID,
		Name:          c.Name,
		Source:        c.Source,
		DateOfBirth:   c.DateOfBirth,
		LicenseNumber: c.LicenseNumber,
		LicenseState:  c.LicenseState,
		ZipCode:       c.ZipCode,
		CreatedAt:     formatTime(c.CreatedAt),
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return nil, fmt.Errorf("marshal customer: %w", err)
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.Table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return nil, fmt.Errorf("put customer: %w", err)
	}
	out := *c
	return &out, nil
}

func (it customerItem) toModel() (model.Customer, error) {
	created, err := parseTime(it.CreatedAt)
	if err != nil {
		return model.Customer{}, err
	}
	return model.Customer{
		ID:            it.ID,
		OrgID:         it.OrgID,
		Name:          it.Name,
		Source:        it.Source,
		DateOfBirth:   it.DateOfBirth,
		LicenseNumber: it.LicenseNumber,
		LicenseState:  it.LicenseState,
		ZipCode:       it.ZipCode,
		CreatedAt:     created,
	}, nil
}
