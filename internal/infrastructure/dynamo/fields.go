package dynamo

// DynamoDB attribute names used in key, condition and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldUpdatedAt        = "updated_at"
	fieldStatus           = "status"
	fieldExpiresAt        = "expires_at"
	fieldVerificationID   = "verification_id"
	fieldRecipient        = "recipient"
	fieldStaffID          = "staff_id"
	fieldEmail            = "email"
	fieldOrganisationID   = "organisation_id"
	fieldSessionID        = "session_id"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldPlanType         = "plan_type"
	fieldRole             = "role"
)

// Secondary index names created by Bootstrap.
const (
	indexRecipient      = "recipient-index"
	indexEmail          = "email-index"
	indexOrganisationID = "organisation_id-index"
	indexStaffID        = "staff_id-index"
	indexRefreshToken   = "refresh_token-index"
)
