package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/recovery-service/internal/domain"
	apperrors "github.com/spec-kit/recovery-service/pkg/util/errorutil"
)

func registerInput(id string) DCAInput {
	return DCAInput{
		ID:                 id,
		Name:               "Pinnacle Recovery",
		Code:               "PIN-01",
		PerformanceScore:   0.8,
		MaxConcurrentCases: 20,
		IsActive:           true,
		IsAcceptingCases:   true,
	}
}

func TestRegisterUsesSuppliedID(t *testing.T) {
	svc := NewDCAService(newFakeDCARepo(), newFakeCaseRepo())

	dca, err := svc.Register(context.Background(), registerInput("dca-ext-7"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if dca.ID != "dca-ext-7" {
		t.Fatalf("ID = %q, want caller-supplied dca-ext-7", dca.ID)
	}

	stored, err := svc.Get(context.Background(), "dca-ext-7")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Name != "Pinnacle Recovery" {
		t.Fatalf("unexpected stored agency %+v", stored)
	}
}

func TestRegisterGeneratesIDWhenOmitted(t *testing.T) {
	svc := NewDCAService(newFakeDCARepo(), newFakeCaseRepo())

	dca, err := svc.Register(context.Background(), registerInput(""))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if dca.ID == "" {
		t.Fatal("expected a generated id")
	}
}

func TestRegisterDuplicateIDConflicts(t *testing.T) {
	svc := NewDCAService(newFakeDCARepo(&domain.DCA{ID: "dca-1", Name: "Existing"}), newFakeCaseRepo())

	_, err := svc.Register(context.Background(), registerInput("dca-1"))
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewDCAService(newFakeDCARepo(), newFakeCaseRepo())

	bad := registerInput("dca-1")
	bad.MaxConcurrentCases = 0
	_, err := svc.Register(context.Background(), bad)
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected validation failure, got %v", err)
	}
}
