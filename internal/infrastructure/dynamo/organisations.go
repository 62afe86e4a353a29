package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/loan-admin-api/internal/domain"
)

// OrganisationRepo provides typed DynamoDB operations for the organisations table.
type OrganisationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOrganisationRepo(client *dynamodb.Client, tableName string) *OrganisationRepo {
	return &OrganisationRepo{client: client, tableName: tableName}
}

func (r *OrganisationRepo) Put(ctx context.Context, o *domain.Organisation) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal organisation: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OrganisationRepo) Get(ctx context.Context, organisationID string) (*domain.Organisation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldOrganisationID, organisationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("organisation not found: %w", domain.ErrNotFound)
	}
	var o domain.Organisation
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrganisationRepo) Scan(ctx context.Context) ([]domain.Organisation, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	var orgs []domain.Organisation
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.Organisation
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		orgs = append(orgs, page...)
	}
	return orgs, nil
}
