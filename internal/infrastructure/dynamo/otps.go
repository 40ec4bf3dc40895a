package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/myvoice974/account-api/internal/domain"
)

// otpDynamoAPI is the slice of the DynamoDB client the repo calls.
type otpDynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// OtpRepo manages password-recovery passcode records.
// PK: otp_id; lookups by email go through the email-created_at-index GSI.
type OtpRepo struct {
	client    otpDynamoAPI
	tableName string
}

func NewOtpRepo(client *dynamodb.Client, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

func (r *OtpRepo) Put(ctx context.Context, rec *domain.OtpRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// findActiveInput builds the query for unconsumed (email, code) matches.
// "consumed" is a DynamoDB reserved word, so every expression aliases it
// through ExpressionAttributeNames.
func findActiveInput(tableName, email, code string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(tableName),
		IndexName:              aws.String("email-created_at-index"),
		KeyConditionExpression: aws.String("email = :e"),
		FilterExpression:       aws.String("#c = :c AND #con = :f"),
		ExpressionAttributeNames: map[string]string{
			"#c":   "code",
			"#con": "consumed",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":c": &types.AttributeValueMemberS{Value: code},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	}
}

func markConsumedInput(tableName, otpID string) *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName:           aws.String(tableName),
		Key:                 strKey("otp_id", otpID),
		UpdateExpression:    aws.String("SET #con = :t"),
		ConditionExpression: aws.String("#con = :f"),
		ExpressionAttributeNames: map[string]string{
			"#con": "consumed",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	}
}

// FindActive returns the oldest unconsumed record matching (email, code), or
// a domain.ErrNotFound-wrapped error when none matches. Expiry is not part of
// the filter; the caller decides what an expired match means. The filter runs
// after each page is read, so the query pages through the whole partition
// before reporting a miss.
func (r *OtpRepo) FindActive(ctx context.Context, email, code string) (*domain.OtpRecord, error) {
	in := findActiveInput(r.tableName, email, code)
	for {
		out, err := r.client.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		if len(out.Items) > 0 {
			var rec domain.OtpRecord
			if err := attributevalue.UnmarshalMap(out.Items[0], &rec); err != nil {
				return nil, err
			}
			return &rec, nil
		}
		if out.LastEvaluatedKey == nil {
			return nil, fmt.Errorf("no active otp for email: %w", domain.ErrNotFound)
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// MarkConsumed flips consumed to true, conditional on it still being false.
// Two concurrent verifications of the same code race on this write; the loser
// gets a domain.ErrConflict-wrapped error. This is what makes consumption
// at-most-once.
func (r *OtpRepo) MarkConsumed(ctx context.Context, otpID string) error {
	_, err := r.client.UpdateItem(ctx, markConsumedInput(r.tableName, otpID))
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("otp already consumed: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}
