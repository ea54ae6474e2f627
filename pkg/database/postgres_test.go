package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/pkg/config"
)

func TestDSNFromDiscreteSettings(t *testing.T) {
	dsn, err := DSN(config.DatabaseConfig{
		Host: "db", Port: 5432, User: "sma", Password: "secret", Name: "admin_panel_sma", SSLMode: "disable",
	})

	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=sma password=secret dbname=admin_panel_sma sslmode=disable", dsn)
}

func TestDSNPrefersURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "inherits sslmode",
			cfg:  config.DatabaseConfig{URL: "postgres://sma:secret@db:5432/school", Host: "ignored", SSLMode: "require"},
			want: "postgres://sma:secret@db:5432/school?sslmode=require",
		},
		{
			name: "keeps explicit sslmode",
			cfg:  config.DatabaseConfig{URL: "postgresql://sma@db/school?sslmode=disable", SSLMode: "require"},
			want: "postgresql://sma@db/school?sslmode=disable",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := DSN(tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, dsn)
		})
	}
}

func TestDSNRejectsForeignScheme(t *testing.T) {
	_, err := DSN(config.DatabaseConfig{URL: "mysql://root@localhost/school"})

	assert.ErrorContains(t, err, "unsupported scheme")
}
