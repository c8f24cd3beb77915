package fsxml

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(n int64) *int64 { return &n }

func extensionRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"extension", "password", "accountcode", "toll_allow", "user_record", "user_context",
		"effective_caller_id_name", "effective_caller_id_number",
		"outbound_caller_id_name", "outbound_caller_id_number",
		"call_group", "call_timeout",
	})
}

func TestBuildDirectory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		purpose     string
		user        string
		domain      string
		setupMock   func(pgxmock.PgxPoolIface)
		wantErr     bool
		wantSection string
		check       func(*testing.T, *Document)
	}{
		{
			name:        "network-list purpose short-circuits without store access",
			purpose:     "network-list",
			user:        "1001",
			domain:      "acme.example.com",
			wantSection: "directory",
			check: func(t *testing.T, doc *Document) {
				assert.Equal(t, "not found", doc.Section[0].Result.Status)
			},
		},
		{
			name:        "gateways purpose short-circuits without store access",
			purpose:     "gateways",
			user:        "1001",
			domain:      "acme.example.com",
			wantSection: "directory",
			check: func(t *testing.T, doc *Document) {
				assert.Equal(t, "not found", doc.Section[0].Result.Status)
			},
		},
		{
			name:        "missing user is a normal non-match",
			domain:      "acme.example.com",
			wantSection: "directory",
			check: func(t *testing.T, doc *Document) {
				assert.Equal(t, "not found", doc.Section[0].Result.Status)
			},
		},
		{
			name:   "bare extension emits only password and defaulted user_context",
			user:   "1001",
			domain: "acme.example.com",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM pbx\.extensions`).
					WithArgs("1001", "acme.example.com", "true").
					WillReturnRows(extensionRows().
						AddRow("1001", "secret", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil))
			},
			wantSection: "directory",
			check: func(t *testing.T, doc *Document) {
				require.NotNil(t, doc.Section[0].Domain)
				require.Len(t, doc.Section[0].Domain.User, 1)
				u := doc.Section[0].Domain.User[0]
				require.Len(t, u.Params, 1)
				assert.Equal(t, ParamNode{Name: "password", Value: "secret"}, u.Params[0])
				require.Len(t, u.Vars, 1)
				assert.Equal(t, VariableNode{Name: "user_context", Value: "acme.example.com"}, u.Vars[0])
			},
		},
		{
			name:   "fully populated extension",
			user:   "1002",
			domain: "acme.example.com",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM pbx\.extensions`).
					WithArgs("1002", "acme.example.com", "true").
					WillReturnRows(extensionRows().
						AddRow("1002", "secret", strPtr("ACME"), strPtr("domestic,local"), strPtr("all"),
							strPtr("acme.example.com"), strPtr("Alice Doe"), strPtr("1002"),
							strPtr("Acme Corp"), strPtr("5550100"), strPtr("sales"), int64Ptr(30)))
			},
			wantSection: "directory",
			check: func(t *testing.T, doc *Document) {
				u := doc.Section[0].Domain.User[0]
				assert.Equal(t, []ParamNode{
					{Name: "password", Value: "secret"},
					{Name: "accountcode", Value: "ACME"},
					{Name: "toll_allow", Value: "domestic,local"},
					{Name: "user_record", Value: "all"},
				}, u.Params)
				assert.Equal(t, []VariableNode{
					{Name: "user_context", Value: "acme.example.com"},
					{Name: "effective_caller_id_name", Value: "Alice Doe"},
					{Name: "effective_caller_id_number", Value: "1002"},
					{Name: "outbound_caller_id_name", Value: "Acme Corp"},
					{Name: "outbound_caller_id_number", Value: "5550100"},
					{Name: "call_group", Value: "sales"},
					{Name: "call_timeout", Value: "30"},
				}, u.Vars)
			},
		},
		{
			name:   "unknown extension is a normal non-match",
			user:   "9999",
			domain: "acme.example.com",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM pbx\.extensions`).
					WithArgs("9999", "acme.example.com", "true").
					WillReturnError(pgx.ErrNoRows)
			},
			wantSection: "directory",
			check: func(t *testing.T, doc *Document) {
				assert.Equal(t, "not found", doc.Section[0].Result.Status)
			},
		},
		{
			name:   "store failure surfaces as an error, never as not-found",
			user:   "1001",
			domain: "acme.example.com",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM pbx\.extensions`).
					WithArgs("1001", "acme.example.com", "true").
					WillReturnError(assert.AnError)
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			if tc.setupMock != nil {
				tc.setupMock(mock)
			}

			svc := &DirectoryService{DB: mock}
			doc, err := svc.BuildDirectory(context.Background(), tc.purpose, tc.user, tc.domain)

			if tc.wantErr {
				require.Error(t, err)
				assert.Nil(t, doc)
			} else {
				require.NoError(t, err)
				require.Len(t, doc.Section, 1)
				assert.Equal(t, tc.wantSection, doc.Section[0].Name)
				if tc.check != nil {
					tc.check(t, doc)
				}
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
