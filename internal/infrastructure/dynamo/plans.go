package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/loan-admin-api/internal/domain"
)

// PlanRepo stores subscription plans keyed by plan_type.
type PlanRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPlanRepo(client *dynamodb.Client, tableName string) *PlanRepo {
	return &PlanRepo{client: client, tableName: tableName}
}

func (r *PlanRepo) Put(ctx context.Context, p *domain.SubscriptionPlan) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal subscription plan: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PlanRepo) Get(ctx context.Context, planType string) (*domain.SubscriptionPlan, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldPlanType, planType),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("subscription plan not found: %w", domain.ErrNotFound)
	}
	var p domain.SubscriptionPlan
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlanRepo) Scan(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var plans []domain.SubscriptionPlan
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}
