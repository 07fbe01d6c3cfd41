package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"meridian/config"
	"meridian/models"
	"meridian/utils"
)

func TestTokenCommandIssuesValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cmd-test-secret")
	t.Cleanup(func() { config.AppConfig = config.Config{} })

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "prov-7", "--role", "provider"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	caller, err := utils.ValidateToken(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if caller.ID != "prov-7" || caller.Role != models.RoleProvider {
		t.Errorf("unexpected caller %+v", caller)
	}
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "cmd-test-secret")
	t.Cleanup(func() { config.AppConfig = config.Config{} })

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"token", "x", "--role", "superuser"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error for an unknown role")
	}
}

func TestDemoProvidersCoverEveryArea(t *testing.T) {
	providers := demoProviders(2, time.Now())
	if len(providers) != 2*len(models.ServiceAreas) {
		t.Fatalf("expected %d providers, got %d", 2*len(models.ServiceAreas), len(providers))
	}
	perArea := map[models.ServiceArea]int{}
	phones := map[string]bool{}
	for _, p := range providers {
		perArea[p.ServiceArea]++
		if phones[p.Phone] {
			t.Errorf("duplicate phone %s", p.Phone)
		}
		phones[p.Phone] = true
		if p.Rating < 0 || p.Rating > 5 || !p.Offers("svc-back-pain") {
			t.Errorf("unexpected provider %+v", p)
		}
	}
	for _, area := range models.ServiceAreas {
		if perArea[area] != 2 {
			t.Errorf("area %s has %d providers", area, perArea[area])
		}
	}
}
