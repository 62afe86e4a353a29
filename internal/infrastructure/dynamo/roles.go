package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/loan-admin-api/internal/domain"
)

// RoleRepo stores role permission sets keyed by role.
type RoleRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRoleRepo(client *dynamodb.Client, tableName string) *RoleRepo {
	return &RoleRepo{client: client, tableName: tableName}
}

func (r *RoleRepo) Put(ctx context.Context, def *domain.RoleDefinition) error {
	item, err := attributevalue.MarshalMap(def)
	if err != nil {
		return fmt.Errorf("marshal role: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RoleRepo) Get(ctx context.Context, role domain.Role) (*domain.RoleDefinition, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldRole, string(role)),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("role not found: %w", domain.ErrNotFound)
	}
	var def domain.RoleDefinition
	if err := attributevalue.UnmarshalMap(out.Item, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *RoleRepo) Scan(ctx context.Context) ([]domain.RoleDefinition, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var defs []domain.RoleDefinition
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}
