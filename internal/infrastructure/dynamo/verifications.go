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

// VerificationRepo stores verification codes and tokens.
// PK: verification_id. GSI: recipient-index. No TTL: verified records must outlive expires_at.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationRecord) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": fieldVerificationID,
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("verification %s already exists: %w", v.VerificationID, domain.ErrConflict)
	}
	return err
}

// ListByRecipient returns every record for recipient across all channels and statuses.
func (r *VerificationRepo) ListByRecipient(ctx context.Context, recipient string) ([]domain.VerificationRecord, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexRecipient),
		KeyConditionExpression:    aws.String("#r = :r"),
		ExpressionAttributeNames:  map[string]string{"#r": fieldRecipient},
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": strVal(recipient)},
	})
	var records []domain.VerificationRecord
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		page, err := decodeVerifications(out.Items)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}
	return records, nil
}

// Scan returns every record in the table.
func (r *VerificationRepo) Scan(ctx context.Context) ([]domain.VerificationRecord, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	var records []domain.VerificationRecord
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		page, err := decodeVerifications(out.Items)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}
	return records, nil
}

// MarkVerified flips a record from pending to verified in a single conditional write.
// Returns false without error when the record is no longer pending or has expired.
func (r *VerificationRepo) MarkVerified(ctx context.Context, verificationID string, now time.Time) (bool, error) {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldVerificationID, verificationID),
		UpdateExpression:    aws.String("SET #s = :verified"),
		ConditionExpression: aws.String("attribute_exists(#id) AND #s = :pending AND #e >= :now"),
		ExpressionAttributeNames: map[string]string{
			"#id": fieldVerificationID,
			"#s":  fieldStatus,
			"#e":  fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":verified": strVal(string(domain.VerificationVerified)),
			":pending":  strVal(string(domain.VerificationPending)),
			":now":      numVal(now.UnixMilli()),
		},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteExpiredPending removes the record only if it is still pending and still expired at write time.
func (r *VerificationRepo) DeleteExpiredPending(ctx context.Context, verificationID string, now time.Time) (bool, error) {
	return r.conditionalDelete(ctx, verificationID, "#s = :pending AND #e < :now", map[string]types.AttributeValue{
		":pending": strVal(string(domain.VerificationPending)),
		":now":     numVal(now.UnixMilli()),
	})
}

// DeletePending removes the record only if it is still pending.
func (r *VerificationRepo) DeletePending(ctx context.Context, verificationID string) (bool, error) {
	return r.conditionalDelete(ctx, verificationID, "#s = :pending", map[string]types.AttributeValue{
		":pending": strVal(string(domain.VerificationPending)),
	})
}

func (r *VerificationRepo) conditionalDelete(ctx context.Context, verificationID, cond string, values map[string]types.AttributeValue) (bool, error) {
	names := map[string]string{"#s": fieldStatus}
	if _, ok := values[":now"]; ok {
		names["#e"] = fieldExpiresAt
	}
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldVerificationID, verificationID),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func decodeVerification(item map[string]types.AttributeValue) (*domain.VerificationRecord, error) {
	var v domain.VerificationRecord
	if err := attributevalue.UnmarshalMap(item, &v); err != nil {
		return nil, fmt.Errorf("unmarshal verification: %v: %w", err, domain.ErrMalformedRecord)
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeVerifications(items []map[string]types.AttributeValue) ([]domain.VerificationRecord, error) {
	records := make([]domain.VerificationRecord, 0, len(items))
	for _, item := range items {
		v, err := decodeVerification(item)
		if err != nil {
			return nil, err
		}
		records = append(records, *v)
	}
	return records, nil
}
