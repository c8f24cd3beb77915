package fsxml

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/kayp514/vgtpbx-cloudmvp-sub000/internal/models"
)

// Public-context keying modes. In "single" mode the public context is keyed
// per destination number, in "multi" per context only. The key is computed
// for parity with the panel's cache layout; nothing consults it yet beyond
// the debug log.
const (
	PublicContextSingle = "single"
	PublicContextMulti  = "multi"
)

type DialplanService struct {
	DB                Queryer
	Log               *slog.Logger
	PublicContextMode string
}

type DialplanRequest struct {
	CallerContext     string
	Hostname          string
	DestinationNumber string
}

// BuildDialplan resolves the ordered rule set for a calling context and
// renders it as one dialplan section. A nil error with a not-found document
// means no rule matched; any non-nil error is the caller's cue to answer
// not-found as well, since a stalled or failed lookup must never abort a
// live call leg.
func (s *DialplanService) BuildDialplan(ctx context.Context, req DialplanRequest) (*Document, error) {
	lookupContext := normalizeContext(req.CallerContext)
	s.logger().Debug("dialplan lookup",
		"context", req.CallerContext,
		"hostname", req.Hostname,
		"destination", req.DestinationNumber,
		"cache_key", s.cacheKey(lookupContext, req.DestinationNumber),
	)

	dom, err := s.lookupDomain(ctx, req.CallerContext)
	if err != nil {
		return nil, err
	}

	var (
		globalRules []models.GlobalDialplanRule
		domainRules []models.DialplanRule
		variables   []models.SystemVariable
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		globalRules, err = s.fetchGlobalRules(gctx, req.DestinationNumber)
		return err
	})
	g.Go(func() error {
		var err error
		domainRules, err = s.fetchDomainRules(gctx, lookupContext, req.Hostname, req.DestinationNumber, dom)
		return err
	})
	g.Go(func() error {
		var err error
		variables, err = s.fetchSystemVariables(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var fragments []string
	for _, c := range mergeCandidates(domainRules, globalRules) {
		if !c.enabled {
			continue
		}
		frag, err := renderCandidate(c)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(frag) == "" {
			continue
		}
		fragments = append(fragments, frag)
	}

	// An empty dialplan section is ambiguous to the switch; answer with an
	// explicit not-found instead.
	if len(fragments) == 0 {
		return NotFound(), nil
	}

	vars := make([]VariableNode, 0, len(variables))
	for _, v := range variables {
		vars = append(vars, VariableNode{Name: v.Name, Value: v.Value})
	}

	return NewDocument(Section{
		Name:        "dialplan",
		Description: "Dynamic Dialplan",
		Context: &ContextNode{
			Name:       req.CallerContext,
			Variables:  vars,
			Extensions: "\n" + strings.Join(fragments, "\n") + "\n",
		},
	}), nil
}

// normalizeContext folds the public-context spellings the switch sends
// (`public`, `public@fqdn`, `fqdn.public`) into the canonical lookup name.
func normalizeContext(callerContext string) string {
	if callerContext == "public" ||
		strings.HasPrefix(callerContext, "public@") ||
		strings.HasSuffix(callerContext, ".public") {
		return "public"
	}
	return callerContext
}

func (s *DialplanService) cacheKey(lookupContext, destination string) string {
	if lookupContext == "public" && s.PublicContextMode == PublicContextSingle && destination != "" {
		return "dialplan:" + lookupContext + ":" + destination
	}
	return "dialplan:" + lookupContext
}

const domainLookupSQL = `
SELECT id, name, tenant_id, domain_uuid
FROM pbx.domains
WHERE name = $1 AND disabled = false`

// lookupDomain maps the caller context to a tenant domain. A context with
// no mapping (the public context, typically) is not an error; the rule
// query simply runs unscoped.
func (s *DialplanService) lookupDomain(ctx context.Context, callerContext string) (*models.Domain, error) {
	var dom models.Domain
	err := s.DB.QueryRow(ctx, domainLookupSQL, callerContext).
		Scan(&dom.ID, &dom.Name, &dom.TenantID, &dom.DomainUUID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup domain: %w", err)
	}
	return &dom, nil
}

func (s *DialplanService) fetchGlobalRules(ctx context.Context, destination string) ([]models.GlobalDialplanRule, error) {
	query := `
SELECT id, name, context, number, sequence, enabled, xml
FROM pbx.dialplan_defaults
WHERE enabled = $1 AND context IN ('global', 'public')`
	args := []any{string(models.FlagTrue)}
	if destination != "" {
		query += ` AND (number IS NULL OR number = $2)`
		args = append(args, destination)
	}
	query += ` ORDER BY sequence`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query default dialplans: %w", err)
	}
	defer rows.Close()

	var rules []models.GlobalDialplanRule
	for rows.Next() {
		var (
			r       models.GlobalDialplanRule
			enabled models.Flag
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Context, &r.Number, &r.Sequence, &enabled, &r.XML); err != nil {
			return nil, fmt.Errorf("scan default dialplan: %w", err)
		}
		r.Enabled = enabled.Bool()
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// fetchDomainRules gathers the tenant-scoped candidates along with the
// enabled detail rows of every rule lacking a precomputed fragment. A rule
// context equal to the literal token `${domain_name}` matches when the
// caller context resolved to a mapped domain.
func (s *DialplanService) fetchDomainRules(ctx context.Context, lookupContext, hostname, destination string, dom *models.Domain) ([]models.DialplanRule, error) {
	var (
		where []string
		args  []any
		idx   = 1
	)

	add := func(cond string, vals ...any) {
		where = append(where, cond)
		args = append(args, vals...)
		idx += len(vals)
	}

	add(fmt.Sprintf("enabled = $%d", idx), string(models.FlagTrue))
	if dom != nil {
		add(fmt.Sprintf("(context = $%d OR context = '${domain_name}')", idx), lookupContext)
		add(fmt.Sprintf("domain_uuid = $%d", idx), dom.DomainUUID)
	} else {
		add(fmt.Sprintf("context = $%d", idx), lookupContext)
	}
	add(fmt.Sprintf("(hostname IS NULL OR hostname = $%d)", idx), hostname)
	if destination != "" {
		add(fmt.Sprintf("(number IS NULL OR number = $%d)", idx), destination)
	}

	query := `
SELECT id, dialplan_uuid, name, dialplan_continue, context, number, sequence, enabled, hostname, xml
FROM pbx.dialplans
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY sequence`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query domain dialplans: %w", err)
	}
	defer rows.Close()

	var rules []models.DialplanRule
	for rows.Next() {
		var (
			r       models.DialplanRule
			enabled models.Flag
		)
		if err := rows.Scan(&r.ID, &r.UUID, &r.Name, &r.Continue, &r.Context, &r.Number,
			&r.Sequence, &enabled, &r.Hostname, &r.XML); err != nil {
			return nil, fmt.Errorf("scan domain dialplan: %w", err)
		}
		r.Enabled = enabled.Bool()
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var need []int64
	byID := make(map[int64]*models.DialplanRule)
	for i := range rules {
		r := &rules[i]
		if strings.TrimSpace(deref(r.XML)) == "" {
			need = append(need, r.ID)
			byID[r.ID] = r
		}
	}
	if len(need) == 0 {
		return rules, nil
	}

	details, err := s.fetchDetails(ctx, need)
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if r, ok := byID[d.DialplanID]; ok {
			r.Details = append(r.Details, d)
		}
	}
	return rules, nil
}

const detailsSQL = `
SELECT dialplan_id, tag, COALESCE(detail_type, ''), COALESCE(detail_data, ''),
       detail_break, detail_inline, detail_group, sequence, enabled
FROM pbx.dialplan_details
WHERE dialplan_id = ANY($1) AND enabled = $2
ORDER BY dialplan_id, detail_group, sequence`

func (s *DialplanService) fetchDetails(ctx context.Context, ids []int64) ([]models.DialplanDetail, error) {
	rows, err := s.DB.Query(ctx, detailsSQL, ids, string(models.FlagTrue))
	if err != nil {
		return nil, fmt.Errorf("query dialplan details: %w", err)
	}
	defer rows.Close()

	var details []models.DialplanDetail
	for rows.Next() {
		var (
			d       models.DialplanDetail
			enabled models.Flag
		)
		if err := rows.Scan(&d.DialplanID, &d.Tag, &d.Type, &d.Data,
			&d.Break, &d.Inline, &d.Group, &d.Sequence, &enabled); err != nil {
			return nil, fmt.Errorf("scan dialplan detail: %w", err)
		}
		d.Enabled = enabled.Bool()
		details = append(details, d)
	}
	return details, rows.Err()
}

const systemVariablesSQL = `
SELECT setting_name, setting_value
FROM pbx.default_settings
WHERE category = 'System Variables' AND enabled = $1
ORDER BY setting_name`

func (s *DialplanService) fetchSystemVariables(ctx context.Context) ([]models.SystemVariable, error) {
	rows, err := s.DB.Query(ctx, systemVariablesSQL, string(models.FlagTrue))
	if err != nil {
		return nil, fmt.Errorf("query system variables: %w", err)
	}
	defer rows.Close()

	var vars []models.SystemVariable
	for rows.Next() {
		var v models.SystemVariable
		if err := rows.Scan(&v.Name, &v.Value); err != nil {
			return nil, fmt.Errorf("scan system variable: %w", err)
		}
		vars = append(vars, v)
	}
	return vars, rows.Err()
}

type ruleSource int

const (
	sourceDefault ruleSource = iota
	sourceDomain
)

// candidateRule is the tagged union of the two rule shapes. Only the
// (sequence, source, enabled) projection is visible to the merge; the
// shape-specific fields stay behind renderCandidate.
type candidateRule struct {
	sequence float64
	source   ruleSource
	enabled  bool
	domain   *models.DialplanRule
	global   *models.GlobalDialplanRule
}

// mergeCandidates orders the union by numeric sequence; on a tie the
// domain-scoped rule sorts ahead of the global one.
func mergeCandidates(domainRules []models.DialplanRule, globalRules []models.GlobalDialplanRule) []candidateRule {
	out := make([]candidateRule, 0, len(domainRules)+len(globalRules))
	for i := range globalRules {
		g := &globalRules[i]
		out = append(out, candidateRule{sequence: g.Sequence, source: sourceDefault, enabled: g.Enabled, global: g})
	}
	for i := range domainRules {
		d := &domainRules[i]
		out = append(out, candidateRule{sequence: d.Sequence, source: sourceDomain, enabled: d.Enabled, domain: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].sequence != out[j].sequence {
			return out[i].sequence < out[j].sequence
		}
		return out[i].source == sourceDomain && out[j].source == sourceDefault
	})
	return out
}

// renderCandidate produces the extension fragment for one rule. A
// precomputed fragment is always emitted verbatim; synthesis from detail
// rows only happens when no fragment is stored.
func renderCandidate(c candidateRule) (string, error) {
	if c.source == sourceDefault {
		return c.global.XML, nil
	}

	if frag := deref(c.domain.XML); strings.TrimSpace(frag) != "" {
		return frag, nil
	}

	body, err := renderDetails(c.domain.Details)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return "", nil
	}

	ext := ExtensionNode{
		XMLName:  xml.Name{Local: "extension"},
		Name:     c.domain.Name,
		Continue: deref(c.domain.Continue),
		UUID:     c.domain.UUID,
		Body:     "\n" + body + "\n",
	}
	out, err := xml.Marshal(ext)
	if err != nil {
		return "", fmt.Errorf("marshal extension %q: %w", c.domain.Name, err)
	}
	return string(out), nil
}

func (s *DialplanService) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
