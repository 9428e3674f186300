package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeed_Validate(t *testing.T) {
	cases := []struct {
		name    string
		seed    Seed
		wantErr bool
	}{
		{"valid topic", Seed{Kind: SeedKindTopic, Topic: "x", App: "relocation"}, false},
		{"topic missing topic", Seed{Kind: SeedKindTopic, App: "relocation"}, true},
		{"valid company url", Seed{Kind: SeedKindCompanyURL, URL: "https://x.com", App: "placement"}, false},
		{"valid country", Seed{Kind: SeedKindCountry, CountryCode: "SK", CountryName: "Slovakia", App: "relocation"}, false},
		{"valid scheduled", Seed{Kind: SeedKindScheduledRun, Scheduled: true, App: "jobs"}, false},
		{"missing app", Seed{Kind: SeedKindTopic, Topic: "x"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.seed.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
