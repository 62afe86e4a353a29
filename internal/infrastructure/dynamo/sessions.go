package dynamo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/loan-admin-api/internal/domain"
)

// SessionRepo provides typed DynamoDB operations for the sessions table.
type SessionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldSessionID, sessionID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SoftDeleteByStaff disables every session of a staff member.
func (r *SessionRepo) SoftDeleteByStaff(ctx context.Context, staffID string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexStaffID),
		KeyConditionExpression:    aws.String("#s = :sid"),
		ExpressionAttributeNames:  map[string]string{"#s": fieldStaffID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":sid": strVal(staffID)},
	})
	if err != nil {
		return err
	}
	var firstErr error
	for _, item := range out.Items {
		sidAttr, ok := item[fieldSessionID].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if err := r.Update(ctx, sidAttr.Value, map[string]interface{}{fieldEnable: false}); err != nil {
			slog.Warn("failed to disable session", "session_id", sidAttr.Value, "staff_id", staffID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *SessionRepo) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldSessionID, sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// GetByRefreshToken looks up a session by its opaque refresh token via GSI.
// Returns ErrUnauthorized (session disabled) when found but inactive.
func (r *SessionRepo) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexRefreshToken),
		KeyConditionExpression:    aws.String("#rt = :rt"),
		ExpressionAttributeNames:  map[string]string{"#rt": fieldRefreshToken},
		ExpressionAttributeValues: map[string]types.AttributeValue{":rt": strVal(token)},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Items[0], &s); err != nil {
		return nil, err
	}
	if !s.Enable {
		return nil, fmt.Errorf("session disabled: %w", domain.ErrUnauthorized)
	}
	return &s, nil
}

// RotateRefreshToken swaps oldToken for newToken on an enabled session.
// It returns ErrUnauthorized when the session no longer holds oldToken, so each
// refresh token is redeemed at most once even under concurrent refreshes.
func (r *SessionRepo) RotateRefreshToken(ctx context.Context, sessionID, oldToken, newToken string, newExpiry int64) error {
	in, err := r.rotateInput(sessionID, oldToken, newToken, newExpiry, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, in)
	if isConditionFailed(err) {
		return fmt.Errorf("refresh token already used: %w", domain.ErrUnauthorized)
	}
	return err
}

func (r *SessionRepo) rotateInput(sessionID, oldToken, newToken string, newExpiry int64, now time.Time) (*dynamodb.UpdateItemInput, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldRefreshToken:     newToken,
		fieldRefreshExpiresAt: newExpiry,
		fieldUpdatedAt:        now,
	})
	if err != nil {
		return nil, err
	}
	ue.Names["#cur"] = fieldRefreshToken
	ue.Names["#en"] = fieldEnable
	ue.Values[":cur"] = strVal(oldToken)
	ue.Values[":on"] = &types.AttributeValueMemberBOOL{Value: true}
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldSessionID, sessionID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#cur = :cur AND #en = :on"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	}, nil
}
