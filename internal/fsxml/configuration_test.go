package fsxml

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfigurationService(t *testing.T) (*ConfigurationService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)

	return &ConfigurationService{DB: mock}, mock
}

func TestBuildConfigurationACL(t *testing.T) {
	t.Parallel()

	svc, mock := newConfigurationService(t)

	mock.ExpectQuery(`FROM pbx\.access_control_lists`).
		WillReturnRows(pgxmock.NewRows([]string{"name", "default_action", "node_type", "cidr", "domain"}).
			AddRow("trusted", "deny", strPtr("allow"), strPtr("10.0.0.0/8"), nil).
			AddRow("domains", "deny", strPtr("allow"), nil, strPtr("acme.example.com")))

	doc, err := svc.BuildConfiguration(context.Background(), "configuration", "configuration", "name", "acl.conf")
	require.NoError(t, err)

	conf := doc.Section[0].Configuration
	require.NotNil(t, conf)
	assert.Equal(t, "acl.conf", conf.Name)
	require.NotNil(t, conf.NetworkLists)
	require.Len(t, conf.NetworkLists.List, 2)

	trusted := conf.NetworkLists.List[0]
	assert.Equal(t, "trusted", trusted.Name)
	assert.Equal(t, "deny", trusted.Default)
	require.Len(t, trusted.Node, 1)
	assert.Equal(t, NetworkMatchNode{Type: "allow", CIDR: "10.0.0.0/8"}, trusted.Node[0])

	rendered, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, rendered, `<list name="trusted" default="deny">`)
	assert.Contains(t, rendered, `<node type="allow" cidr="10.0.0.0/8">`)
	// The cidr node must not also carry a domain attribute.
	assert.NotContains(t, rendered, `cidr="10.0.0.0/8" domain=`)
	assert.Contains(t, rendered, `<node type="allow" domain="acme.example.com">`)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildConfigurationACLEmptyList(t *testing.T) {
	t.Parallel()

	svc, mock := newConfigurationService(t)

	mock.ExpectQuery(`FROM pbx\.access_control_lists`).
		WillReturnRows(pgxmock.NewRows([]string{"name", "default_action", "node_type", "cidr", "domain"}).
			AddRow("empty", "allow", nil, nil, nil))

	doc, err := svc.BuildConfiguration(context.Background(), "configuration", "configuration", "name", "acl.conf")
	require.NoError(t, err)

	lists := doc.Section[0].Configuration.NetworkLists.List
	require.Len(t, lists, 1)
	assert.Equal(t, "empty", lists[0].Name)
	assert.Empty(t, lists[0].Node)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildConfigurationSofia(t *testing.T) {
	t.Parallel()

	svc, mock := newConfigurationService(t)

	mock.ExpectQuery(`FROM pbx\.sip_profiles`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "external").
			AddRow(int64(2), "internal"))
	mock.ExpectQuery(`FROM pbx\.sip_profile_domains`).
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"profile_id", "name", "alias", "parse"}).
			AddRow(int64(2), "acme.example.com", "false", "true"))
	mock.ExpectQuery(`FROM pbx\.sip_profile_settings`).
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"profile_id", "name", "value"}).
			AddRow(int64(1), "sip-port", "5080").
			AddRow(int64(2), "sip-port", ""))

	doc, err := svc.BuildConfiguration(context.Background(), "configuration", "configuration", "name", "sofia.conf")
	require.NoError(t, err)

	conf := doc.Section[0].Configuration
	require.NotNil(t, conf.Profiles)
	require.Len(t, conf.Profiles.Profile, 2)

	external := conf.Profiles.Profile[0]
	assert.Equal(t, "external", external.Name)
	require.Len(t, external.Gateways.Include, 1)
	assert.Equal(t, PreProcessNode{Cmd: "include", Data: "external/*.xml"}, external.Gateways.Include[0])
	assert.Empty(t, external.Domains.Domain)
	assert.Equal(t, []ParamNode{{Name: "sip-port", Value: "5080"}}, external.Settings.Param)

	internal := conf.Profiles.Profile[1]
	assert.Equal(t, []ProfileDomainNode{{Name: "acme.example.com", Alias: "false", Parse: "true"}}, internal.Domains.Domain)
	// Null setting values default to the empty string, not omission.
	assert.Equal(t, []ParamNode{{Name: "sip-port", Value: ""}}, internal.Settings.Param)

	rendered, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, rendered, `<profile name="external">`)
	assert.Contains(t, rendered, `<aliases>`)
	assert.Contains(t, rendered, `<X-PRE-PROCESS cmd="include" data="external/*.xml">`)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildConfigurationStub(t *testing.T) {
	t.Parallel()

	svc, _ := newConfigurationService(t)

	tests := []struct {
		name                              string
		section, tagName, keyName, keyVal string
		wantName                          string
	}{
		{"unknown key_value", "configuration", "configuration", "name", "event_socket.conf", "event_socket.conf"},
		{"meaningless combination", "dialplan", "configuration", "name", "acl.conf", "acl.conf"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			doc, err := svc.BuildConfiguration(context.Background(), tc.section, tc.tagName, tc.keyName, tc.keyVal)
			require.NoError(t, err)

			conf := doc.Section[0].Configuration
			require.NotNil(t, conf)
			assert.Equal(t, tc.wantName, conf.Name)
			require.NotNil(t, conf.Settings)
			assert.Len(t, conf.Settings.Param, 1)
		})
	}
}

func TestBuildConfigurationStoreFailure(t *testing.T) {
	t.Parallel()

	svc, mock := newConfigurationService(t)

	mock.ExpectQuery(`FROM pbx\.access_control_lists`).
		WillReturnError(assert.AnError)

	doc, err := svc.BuildConfiguration(context.Background(), "configuration", "configuration", "name", "acl.conf")
	require.Error(t, err)
	assert.Nil(t, doc)
}
