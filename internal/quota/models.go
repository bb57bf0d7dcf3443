package quota

import "time"

// Quota models are tenant-scoped where applicable; plan/region rows are
// global catalog data shared by every workspace in that region.

type Workspace struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Subscription struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	PlanCode   string `json:"plan_code" db:"plan_code"`
	RegionCode string `json:"region_code" db:"region_code"`

	Status SubscriptionStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// PlanRegion defines plan defaults for one pricing region.
// Amounts are in minor units (e.g., cents) using int64.
type PlanRegion struct {
	ID string `json:"id" db:"id"`

	PlanCode   string `json:"plan_code" db:"plan_code"`
	RegionCode string `json:"region_code" db:"region_code"`

	Currency string `json:"currency" db:"currency"`

	IncludedCallMinutes   int64 `json:"included_call_minutes" db:"included_call_minutes"`
	IncludedConversations int64 `json:"included_conversations" db:"included_conversations"`

	OveragePerMinuteMinor       int64 `json:"overage_per_minute_minor" db:"overage_per_minute_minor"`
	OveragePerConversationMinor int64 `json:"overage_per_conversation_minor" db:"overage_per_conversation_minor"`

	LimitMode LimitMode `json:"limit_mode" db:"limit_mode"`

	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type LimitMode string

const (
	// LimitModeSoft warns on overage but always allows.
	LimitModeSoft LimitMode = "soft"
	// LimitModeHard blocks once the included quantity is exhausted.
	LimitModeHard LimitMode = "hard"
)

// Override is a workspace-specific exception.
// Invariant: a present field always wins over the plan/region default; an
// absent (nil) field leaves the default in effect. Fields are independent.
type Override struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	CustomIncludedCallMinutes   *int64 `json:"custom_included_call_minutes,omitempty" db:"custom_included_call_minutes"`
	CustomIncludedConversations *int64 `json:"custom_included_conversations,omitempty" db:"custom_included_conversations"`

	CustomOveragePerMinuteMinor       *int64 `json:"custom_overage_per_minute_minor,omitempty" db:"custom_overage_per_minute_minor"`
	CustomOveragePerConversationMinor *int64 `json:"custom_overage_per_conversation_minor,omitempty" db:"custom_overage_per_conversation_minor"`

	CustomLimitMode *LimitMode `json:"custom_limit_mode,omitempty" db:"custom_limit_mode"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Metric identifies a metered quantity.
type Metric string

const (
	MetricCallMinutes   Metric = "call_minutes"
	MetricConversations Metric = "conversations"
)

// Effective is the per-workspace quota after overlaying an Override on the
// PlanRegion defaults.
type Effective struct {
	Currency string `json:"currency"`

	IncludedCallMinutes   int64 `json:"included_call_minutes"`
	IncludedConversations int64 `json:"included_conversations"`

	OveragePerMinuteMinor       int64 `json:"overage_per_minute_minor"`
	OveragePerConversationMinor int64 `json:"overage_per_conversation_minor"`

	LimitMode LimitMode `json:"limit_mode"`
}

// Resolve overlays ov (may be nil) on the plan/region defaults, per-field.
func Resolve(pr PlanRegion, ov *Override) Effective {
	e := Effective{
		Currency:                    pr.Currency,
		IncludedCallMinutes:         pr.IncludedCallMinutes,
		IncludedConversations:       pr.IncludedConversations,
		OveragePerMinuteMinor:       pr.OveragePerMinuteMinor,
		OveragePerConversationMinor: pr.OveragePerConversationMinor,
		LimitMode:                   pr.LimitMode,
	}
	if ov == nil {
		return e
	}
	if ov.CustomIncludedCallMinutes != nil {
		e.IncludedCallMinutes = *ov.CustomIncludedCallMinutes
	}
	if ov.CustomIncludedConversations != nil {
		e.IncludedConversations = *ov.CustomIncludedConversations
	}
	if ov.CustomOveragePerMinuteMinor != nil {
		e.OveragePerMinuteMinor = *ov.CustomOveragePerMinuteMinor
	}
	if ov.CustomOveragePerConversationMinor != nil {
		e.OveragePerConversationMinor = *ov.CustomOveragePerConversationMinor
	}
	if ov.CustomLimitMode != nil {
		e.LimitMode = *ov.CustomLimitMode
	}
	return e
}
