package onboarding

import (
	"context"
	"errors"
	"strings"

	"care-chat-backend/internal/database"
	"care-chat-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("onboarding repository: not found")

type Repository interface {
	GetForm(ctx context.Context, userID string) (model.OnboardingFormItem, error)
	PutForm(ctx context.Context, form model.OnboardingFormItem) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetForm(ctx context.Context, userID string) (model.OnboardingFormItem, error) {
	var form model.OnboardingFormItem
	err := r.db.Client.GetItem(
		ctx,
		model.OnboardingFormsTable,
		map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
		&form,
	)
	if err != nil {
		if isNotFound(err) {
			return model.OnboardingFormItem{}, ErrNotFound
		}
		return model.OnboardingFormItem{}, err
	}
	return form, nil
}

func (r *DynamoRepository) PutForm(ctx context.Context, form model.OnboardingFormItem) error {
	return r.db.Client.PutItem(ctx, model.OnboardingFormsTable, form)
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "item not found")
}
