package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/loan-admin-api/internal/domain"
)

// StaffRepo provides typed DynamoDB operations for the staff table.
// PK: staff_id. GSIs: email-index, organisation_id-index.
type StaffRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewStaffRepo(client *dynamodb.Client, tableName string) *StaffRepo {
	return &StaffRepo{client: client, tableName: tableName}
}

func (r *StaffRepo) Put(ctx context.Context, s *domain.Staff) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal staff: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *StaffRepo) Get(ctx context.Context, staffID string) (*domain.Staff, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldStaffID, staffID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("staff not found: %w", domain.ErrNotFound)
	}
	var s domain.Staff
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexEmail),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(email)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("staff not found: %w", domain.ErrNotFound)
	}
	var s domain.Staff
	if err := attributevalue.UnmarshalMap(out.Items[0], &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByOrganisation applies the tenant equality filter through the organisation_id GSI.
func (r *StaffRepo) ListByOrganisation(ctx context.Context, organisationID string) ([]domain.Staff, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexOrganisationID),
		KeyConditionExpression:    aws.String("#o = :o"),
		ExpressionAttributeNames:  map[string]string{"#o": fieldOrganisationID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":o": strVal(organisationID)},
	})
	var staff []domain.Staff
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.Staff
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		staff = append(staff, page...)
	}
	return staff, nil
}

// Scan returns staff across every organisation. Only reachable through an unscoped filter.
func (r *StaffRepo) Scan(ctx context.Context) ([]domain.Staff, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	var staff []domain.Staff
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.Staff
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		staff = append(staff, page...)
	}
	return staff, nil
}

func (r *StaffRepo) Update(ctx context.Context, staffID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldStaffID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldStaffID, staffID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("staff not found: %w", domain.ErrNotFound)
	}
	return err
}
