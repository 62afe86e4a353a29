package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/loan-admin-api/internal/config"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; skips tables that already exist.
// The verifications table has no TTL: expired pending records are
// reclaimed by the cleanup sweep and verified records are kept.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Staff),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldStaffID),
			strAttr(fieldEmail),
			strAttr(fieldOrganisationID),
		},
		KeySchema: hashKey(fieldStaffID),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexEmail, fieldEmail, ""),
			gsi(indexOrganisationID, fieldOrganisationID, ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Sessions),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldSessionID),
			strAttr(fieldStaffID),
			strAttr(fieldRefreshToken),
		},
		KeySchema: hashKey(fieldSessionID),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexStaffID, fieldStaffID, ""),
			gsi(indexRefreshToken, fieldRefreshToken, ""),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Organisations),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{strAttr(fieldOrganisationID)},
		KeySchema:            hashKey(fieldOrganisationID),
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.SubscriptionPlans),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{strAttr(fieldPlanType)},
		KeySchema:            hashKey(fieldPlanType),
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Roles),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{strAttr(fieldRole)},
		KeySchema:            hashKey(fieldRole),
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Verifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			strAttr(fieldVerificationID),
			strAttr(fieldRecipient),
		},
		KeySchema: hashKey(fieldVerificationID),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexRecipient, fieldRecipient, ""),
		},
	})
}

func strAttr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) []types.KeySchemaElement {
	return []types.KeySchemaElement{{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKeyName, sortKey string) types.GlobalSecondaryIndex {
	ks := hashKey(hashKeyName)
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", *input.TableName)
	}
}
