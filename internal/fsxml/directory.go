package fsxml

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/kayp514/vgtpbx-cloudmvp-sub000/internal/models"
)

type DirectoryService struct {
	DB Queryer
}

const extensionLookupSQL = `
SELECT e.extension, e.password, e.accountcode, e.toll_allow, e.user_record, e.user_context,
       e.effective_caller_id_name, e.effective_caller_id_number,
       e.outbound_caller_id_name, e.outbound_caller_id_number,
       e.call_group, e.call_timeout
FROM pbx.extensions e
JOIN pbx.domains d ON d.id = e.domain_id
WHERE e.extension = $1 AND d.name = $2 AND e.enabled = $3`

// BuildDirectory answers a registration/auth lookup for one user within one
// domain. A missing row (or missing input) is a normal outcome and yields
// the directory not-found document; only a store failure returns an error.
func (s *DirectoryService) BuildDirectory(ctx context.Context, purpose, user, domain string) (*Document, error) {
	// The switch probes these purposes against every directory source; they
	// are intentionally unimplemented passthroughs and must not hit the
	// store.
	if purpose == "network-list" || purpose == "gateways" {
		return DirectoryNotFound(), nil
	}
	if user == "" || domain == "" {
		return DirectoryNotFound(), nil
	}

	var ext models.Extension
	err := s.DB.QueryRow(ctx, extensionLookupSQL, user, domain, string(models.FlagTrue)).Scan(
		&ext.Extension, &ext.Password, &ext.Accountcode, &ext.TollAllow, &ext.UserRecord,
		&ext.UserContext, &ext.EffectiveCallerIDName, &ext.EffectiveCallerIDNumber,
		&ext.OutboundCallerIDName, &ext.OutboundCallerIDNumber,
		&ext.CallGroup, &ext.CallTimeout,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DirectoryNotFound(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup extension %s@%s: %w", user, domain, err)
	}

	params := []ParamNode{{Name: "password", Value: ext.Password}}
	if v := deref(ext.Accountcode); v != "" {
		params = append(params, ParamNode{Name: "accountcode", Value: v})
	}
	if v := deref(ext.TollAllow); v != "" {
		params = append(params, ParamNode{Name: "toll_allow", Value: v})
	}
	if v := deref(ext.UserRecord); v != "" {
		params = append(params, ParamNode{Name: "user_record", Value: v})
	}

	userContext := deref(ext.UserContext)
	if userContext == "" {
		userContext = domain
	}
	vars := []VariableNode{{Name: "user_context", Value: userContext}}
	if v := deref(ext.EffectiveCallerIDName); v != "" {
		vars = append(vars, VariableNode{Name: "effective_caller_id_name", Value: v})
	}
	if v := deref(ext.EffectiveCallerIDNumber); v != "" {
		vars = append(vars, VariableNode{Name: "effective_caller_id_number", Value: v})
	}
	if v := deref(ext.OutboundCallerIDName); v != "" {
		vars = append(vars, VariableNode{Name: "outbound_caller_id_name", Value: v})
	}
	if v := deref(ext.OutboundCallerIDNumber); v != "" {
		vars = append(vars, VariableNode{Name: "outbound_caller_id_number", Value: v})
	}
	if v := deref(ext.CallGroup); v != "" {
		vars = append(vars, VariableNode{Name: "call_group", Value: v})
	}
	if ext.CallTimeout != nil {
		// Explicit serialization at the response boundary; the column is a
		// decimal in the store.
		vars = append(vars, VariableNode{Name: "call_timeout", Value: strconv.FormatInt(*ext.CallTimeout, 10)})
	}

	return NewDocument(Section{
		Name: "directory",
		Domain: &DomainNode{
			Name: domain,
			User: []UserNode{{ID: user, Params: params, Vars: vars}},
		},
	}), nil
}
