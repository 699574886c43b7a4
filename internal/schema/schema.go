// Package schema checks request payload shapes before they are bound to Go types.
package schema

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"bizadmin/internal/domain"
	"github.com/qri-io/jsonschema"
)

//go:embed onboarding.json
var onboardingJSON []byte

var onboarding = mustCompile("onboarding", onboardingJSON)

func mustCompile(name string, raw []byte) *jsonschema.Schema {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, rs); err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return rs
}

// ValidateOnboarding checks an onboarding create or patch body. The first
// violation is returned as a domain.ValidationError.
func ValidateOnboarding(ctx context.Context, body []byte) error {
	return validate(ctx, onboarding, body)
}

func validate(ctx context.Context, rs *jsonschema.Schema, body []byte) error {
	verrs, err := rs.ValidateBytes(ctx, body)
	if err != nil {
		return domain.NewValidationError("", "invalid JSON body")
	}
	if len(verrs) == 0 {
		return nil
	}
	first := verrs[0]
	return domain.NewValidationError(fieldName(first.PropertyPath), first.Message)
}

// fieldName turns a JSON pointer such as /network/vpnUsersCurrent into network.vpnUsersCurrent.
func fieldName(pointer string) string {
	return strings.ReplaceAll(strings.TrimPrefix(pointer, "/"), "/", ".")
}
