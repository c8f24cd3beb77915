package models

// Flag is the two-valued string boolean used by the panel's rule tables
// ("true"/"false"). Convert to a native bool at the store boundary with
// Bool; resolver code never compares the raw strings.
type Flag string

const (
	FlagTrue  Flag = "true"
	FlagFalse Flag = "false"
)

func (f Flag) Bool() bool { return f == FlagTrue }

// Domain maps a full SIP domain name to its tenant.
type Domain struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	TenantID   int64  `db:"tenant_id"`
	DomainUUID string `db:"domain_uuid"`
	Disabled   bool   `db:"disabled"`
}

// Extension is the directory entry for one user within one domain. All
// pointer fields are optional in the store; absent fields are omitted from
// the rendered directory document entirely.
type Extension struct {
	Extension               string  `db:"extension"`
	Password                string  `db:"password"`
	Accountcode             *string `db:"accountcode"`
	TollAllow               *string `db:"toll_allow"`
	UserRecord              *string `db:"user_record"`
	UserContext             *string `db:"user_context"`
	EffectiveCallerIDName   *string `db:"effective_caller_id_name"`
	EffectiveCallerIDNumber *string `db:"effective_caller_id_number"`
	OutboundCallerIDName    *string `db:"outbound_caller_id_name"`
	OutboundCallerIDNumber  *string `db:"outbound_caller_id_number"`
	CallGroup               *string `db:"call_group"`
	CallTimeout             *int64  `db:"call_timeout"`
}

// DialplanRule is a domain-scoped routing rule. Sequence is a decimal in
// the store so rules can be inserted fractionally between neighbors. A
// rule carries either a precomputed XML fragment or detail rows; when both
// are present the fragment wins and is emitted verbatim.
type DialplanRule struct {
	ID       int64            `db:"id"`
	UUID     string           `db:"dialplan_uuid"`
	Name     string           `db:"name"`
	Continue *string          `db:"dialplan_continue"`
	Context  string           `db:"context"`
	Number   *string          `db:"number"`
	Sequence float64          `db:"sequence"`
	Enabled  bool             `db:"enabled"`
	Hostname *string          `db:"hostname"`
	XML      *string          `db:"xml"`
	Details  []DialplanDetail `db:"-"`
}

// Detail tag kinds.
const (
	DetailTagCondition  = "condition"
	DetailTagAction     = "action"
	DetailTagAntiAction = "anti-action"
)

// DialplanDetail is one condition/action/anti-action row belonging to a
// rule. Type/Data hold field/expression for conditions and
// application/data for actions.
type DialplanDetail struct {
	DialplanID int64   `db:"dialplan_id"`
	Tag        string  `db:"tag"`
	Type       string  `db:"detail_type"`
	Data       string  `db:"detail_data"`
	Break      *string `db:"detail_break"`
	Inline     *string `db:"detail_inline"`
	Group      int     `db:"detail_group"`
	Sequence   int     `db:"sequence"`
	Enabled    bool    `db:"enabled"`
}

// GlobalDialplanRule is an unscoped rule shared by every tenant. Its
// context is one of "global" or "public" and it always carries a
// precomputed XML fragment, never detail rows.
type GlobalDialplanRule struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	Context  string  `db:"context"`
	Number   *string `db:"number"`
	Sequence float64 `db:"sequence"`
	Enabled  bool    `db:"enabled"`
	XML      string  `db:"xml"`
}

// AccessControlList is a named permit/deny list with ordered match nodes.
type AccessControlList struct {
	ID      int64  `db:"id"`
	Name    string `db:"name"`
	Default string `db:"default_action"`
	Nodes   []AccessControlNode
}

// AccessControlNode carries exactly one of CIDR or Domain.
type AccessControlNode struct {
	Type   string  `db:"node_type"`
	CIDR   *string `db:"cidr"`
	Domain *string `db:"domain"`
}

// SipProfile is a trunk/profile definition with nested domain aliases and
// name/value settings.
type SipProfile struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Domains  []SipProfileDomain
	Settings []SipProfileSetting
}

type SipProfileDomain struct {
	Name  string `db:"name"`
	Alias string `db:"alias"`
	Parse string `db:"parse"`
}

type SipProfileSetting struct {
	Name  string  `db:"name"`
	Value *string `db:"value"`
}

// SystemVariable is one enabled row of the "System Variables" settings
// category, rendered ahead of the dialplan extensions.
type SystemVariable struct {
	Name  string `db:"setting_name"`
	Value string `db:"setting_value"`
}
