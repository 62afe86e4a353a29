package domain

import "time"

type Organisation struct {
	OrganisationID       string    `json:"id" dynamodbav:"organisation_id"`
	Name                 string    `json:"name" dynamodbav:"name"`
	SubscriptionPlanType string    `json:"subscription_plan_type" dynamodbav:"subscription_plan_type"`
	Enable               bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt            time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt            time.Time `json:"updated" dynamodbav:"updated_at"`
}

type OrganisationInput struct {
	Name                 string `json:"name" validate:"required"`
	SubscriptionPlanType string `json:"subscription_plan_type" validate:"required"`
}
