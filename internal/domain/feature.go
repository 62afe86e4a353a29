package domain

// FeatureKey names one gateable platform capability tied to a subscription plan.
type FeatureKey string

const (
	FeatureLoans            FeatureKey = "loans"
	FeatureBorrowers        FeatureKey = "borrowers"
	FeatureRepayments       FeatureKey = "repayments"
	FeatureProvisioning     FeatureKey = "provisioning"
	FeatureReports          FeatureKey = "reports"
	FeatureSMSNotifications FeatureKey = "sms_notifications"
	FeatureStaffManagement  FeatureKey = "staff_management"
	FeatureMultiBranch      FeatureKey = "multi_branch"
	FeatureAuditLog         FeatureKey = "audit_log"
	FeatureAPIAccess        FeatureKey = "api_access"
)

func (k FeatureKey) Valid() bool {
	switch k {
	case FeatureLoans, FeatureBorrowers, FeatureRepayments, FeatureProvisioning, FeatureReports,
		FeatureSMSNotifications, FeatureStaffManagement, FeatureMultiBranch, FeatureAuditLog, FeatureAPIAccess:
		return true
	}
	return false
}

// SubscriptionPlan is keyed by its type; organisations reference it via SubscriptionPlanType.
type SubscriptionPlan struct {
	PlanType string       `json:"type" dynamodbav:"plan_type"`
	Name     string       `json:"name" dynamodbav:"name"`
	IsActive bool         `json:"is_active" dynamodbav:"is_active"`
	Features []FeatureKey `json:"features" dynamodbav:"features"`
}

// Includes reports membership only; activity is the caller's concern.
func (p *SubscriptionPlan) Includes(key FeatureKey) bool {
	for _, f := range p.Features {
		if f == key {
			return true
		}
	}
	return false
}

type SubscriptionPlanInput struct {
	Name     string       `json:"name" validate:"required"`
	IsActive *bool        `json:"is_active"`
	Features []FeatureKey `json:"features" validate:"dive,feature"`
}
