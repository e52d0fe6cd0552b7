package config_test

import (
	"testing"

	"github.com/slipway-sh/slipway/pkg/cli/config"
)

func TestGitHub_OwnerRepo(t *testing.T) {
	tests := []struct {
		name      string
		repo      string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "Valid owner/name",
			repo:      "acme/product",
			wantOwner: "acme",
			wantRepo:  "product",
			wantErr:   false,
		},
		{
			name:    "Missing slash",
			repo:    "acmeproduct",
			wantErr: true,
		},
		{
			name:    "Empty owner",
			repo:    "/product",
			wantErr: true,
		},
		{
			name:    "Empty name",
			repo:    "acme/",
			wantErr: true,
		},
		{
			name:    "Empty string",
			repo:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &config.GitHub{Repo: tt.repo}
			owner, repo, err := c.OwnerRepo()
			if (err != nil) != tt.wantErr {
				t.Errorf("OwnerRepo() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if owner != tt.wantOwner {
				t.Errorf("OwnerRepo() owner = %q, want %q", owner, tt.wantOwner)
			}
			if repo != tt.wantRepo {
				t.Errorf("OwnerRepo() repo = %q, want %q", repo, tt.wantRepo)
			}
		})
	}
}

func TestGitHub_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.GitHub
		wantErr bool
	}{
		{
			name:    "Token present",
			cfg:     config.GitHub{Repo: "acme/product", Token: "ghp_x"},
			wantErr: false,
		},
		{
			name:    "Anonymous without token",
			cfg:     config.GitHub{Repo: "acme/product", Anonymous: true},
			wantErr: false,
		},
		{
			name:    "No token and not anonymous",
			cfg:     config.GitHub{Repo: "acme/product"},
			wantErr: true,
		},
		{
			name:    "Missing repository",
			cfg:     config.GitHub{Token: "ghp_x"},
			wantErr: true,
		},
		{
			name:    "Malformed repository",
			cfg:     config.GitHub{Repo: "acme", Token: "ghp_x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
