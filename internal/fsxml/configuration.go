package fsxml

import (
	"context"
	"fmt"

	"github.com/kayp514/vgtpbx-cloudmvp-sub000/internal/models"
)

type ConfigurationService struct {
	DB Queryer
}

// BuildConfiguration answers a named configuration lookup. Only
// section=configuration/tag_name=configuration/key_name=name requests are
// meaningful; acl.conf and sofia.conf are built from the store, everything
// else gets the generic stub so the switch keeps loading.
func (s *ConfigurationService) BuildConfiguration(ctx context.Context, section, tagName, keyName, keyValue string) (*Document, error) {
	if section != "configuration" || tagName != "configuration" || keyName != "name" {
		return stubConfiguration(keyValue), nil
	}

	switch keyValue {
	case "acl.conf":
		return s.buildACL(ctx)
	case "sofia.conf":
		return s.buildSofia(ctx)
	default:
		return stubConfiguration(keyValue), nil
	}
}

const aclSQL = `
SELECT l.name, l.default_action, n.node_type, n.cidr, n.domain
FROM pbx.access_control_lists l
LEFT JOIN pbx.access_control_nodes n ON n.list_id = l.id
ORDER BY l.name, n.id`

func (s *ConfigurationService) buildACL(ctx context.Context) (*Document, error) {
	rows, err := s.DB.Query(ctx, aclSQL)
	if err != nil {
		return nil, fmt.Errorf("query access control lists: %w", err)
	}
	defer rows.Close()

	var acls []models.AccessControlList
	for rows.Next() {
		var (
			name, defaultAction string
			node                models.AccessControlNode
			nodeType            *string
		)
		if err := rows.Scan(&name, &defaultAction, &nodeType, &node.CIDR, &node.Domain); err != nil {
			return nil, fmt.Errorf("scan access control list: %w", err)
		}
		if len(acls) == 0 || acls[len(acls)-1].Name != name {
			acls = append(acls, models.AccessControlList{Name: name, Default: defaultAction})
		}
		// A list without nodes joins one all-null node row.
		if nodeType == nil {
			continue
		}
		node.Type = *nodeType
		last := &acls[len(acls)-1]
		last.Nodes = append(last.Nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lists := make([]ListNode, 0, len(acls))
	for _, acl := range acls {
		list := ListNode{Name: acl.Name, Default: acl.Default}
		for _, n := range acl.Nodes {
			list.Node = append(list.Node, NetworkMatchNode{
				Type:   n.Type,
				CIDR:   deref(n.CIDR),
				Domain: deref(n.Domain),
			})
		}
		lists = append(lists, list)
	}

	return NewDocument(Section{
		Name: "configuration",
		Configuration: &ConfigurationNode{
			Name:         "acl.conf",
			Description:  "Network Lists",
			NetworkLists: &NetworkListsNode{List: lists},
		},
	}), nil
}

const sipProfilesSQL = `
SELECT id, name
FROM pbx.sip_profiles
WHERE disabled = false
ORDER BY name`

const sipProfileDomainsSQL = `
SELECT profile_id, name, COALESCE(alias, 'false'), COALESCE(parse, 'false')
FROM pbx.sip_profile_domains
WHERE profile_id = ANY($1)
ORDER BY name`

const sipProfileSettingsSQL = `
SELECT profile_id, name, COALESCE(value, '')
FROM pbx.sip_profile_settings
WHERE profile_id = ANY($1) AND disabled = false
ORDER BY name`

func (s *ConfigurationService) buildSofia(ctx context.Context) (*Document, error) {
	profiles, ids, err := s.fetchProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := s.attachProfileDomains(ctx, ids, profiles); err != nil {
			return nil, err
		}
		if err := s.attachProfileSettings(ctx, ids, profiles); err != nil {
			return nil, err
		}
	}

	nodes := make([]ProfileNode, 0, len(profiles))
	for _, p := range profiles {
		node := ProfileNode{
			Name: p.Name,
			// Gateway rows live outside this responder; the include picks
			// up whatever the provisioner drops on disk.
			Gateways: GatewaysNode{Include: []PreProcessNode{{Cmd: "include", Data: p.Name + "/*.xml"}}},
		}
		for _, d := range p.Domains {
			node.Domains.Domain = append(node.Domains.Domain,
				ProfileDomainNode{Name: d.Name, Alias: d.Alias, Parse: d.Parse})
		}
		for _, st := range p.Settings {
			node.Settings.Param = append(node.Settings.Param,
				ParamNode{Name: st.Name, Value: deref(st.Value)})
		}
		nodes = append(nodes, node)
	}

	return NewDocument(Section{
		Name: "configuration",
		Configuration: &ConfigurationNode{
			Name:        "sofia.conf",
			Description: "Sofia Endpoint",
			Profiles:    &ProfilesNode{Profile: nodes},
		},
	}), nil
}

func (s *ConfigurationService) fetchProfiles(ctx context.Context) ([]*models.SipProfile, []int64, error) {
	rows, err := s.DB.Query(ctx, sipProfilesSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("query sip profiles: %w", err)
	}
	defer rows.Close()

	var (
		profiles []*models.SipProfile
		ids      []int64
	)
	for rows.Next() {
		var p models.SipProfile
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, nil, fmt.Errorf("scan sip profile: %w", err)
		}
		ids = append(ids, p.ID)
		profiles = append(profiles, &p)
	}
	return profiles, ids, rows.Err()
}

func (s *ConfigurationService) attachProfileDomains(ctx context.Context, ids []int64, profiles []*models.SipProfile) error {
	rows, err := s.DB.Query(ctx, sipProfileDomainsSQL, ids)
	if err != nil {
		return fmt.Errorf("query sip profile domains: %w", err)
	}
	defer rows.Close()

	byID := profilesByID(profiles)
	for rows.Next() {
		var (
			profileID int64
			d         models.SipProfileDomain
		)
		if err := rows.Scan(&profileID, &d.Name, &d.Alias, &d.Parse); err != nil {
			return fmt.Errorf("scan sip profile domain: %w", err)
		}
		if p, ok := byID[profileID]; ok {
			p.Domains = append(p.Domains, d)
		}
	}
	return rows.Err()
}

func (s *ConfigurationService) attachProfileSettings(ctx context.Context, ids []int64, profiles []*models.SipProfile) error {
	rows, err := s.DB.Query(ctx, sipProfileSettingsSQL, ids)
	if err != nil {
		return fmt.Errorf("query sip profile settings: %w", err)
	}
	defer rows.Close()

	byID := profilesByID(profiles)
	for rows.Next() {
		var (
			profileID int64
			value     string
			st        models.SipProfileSetting
		)
		if err := rows.Scan(&profileID, &st.Name, &value); err != nil {
			return fmt.Errorf("scan sip profile setting: %w", err)
		}
		st.Value = &value
		if p, ok := byID[profileID]; ok {
			p.Settings = append(p.Settings, st)
		}
	}
	return rows.Err()
}

func profilesByID(profiles []*models.SipProfile) map[int64]*models.SipProfile {
	byID := make(map[int64]*models.SipProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return byID
}

// stubConfiguration is the placeholder for configuration names the panel
// does not manage dynamically.
func stubConfiguration(name string) *Document {
	return NewDocument(Section{
		Name: "configuration",
		Configuration: &ConfigurationNode{
			Name:        name,
			Description: "Default Configuration",
			Settings:    &SettingsNode{Param: []ParamNode{{Name: "default", Value: "true"}}},
		},
	})
}
