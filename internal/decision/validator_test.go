package decision

import (
	"errors"
	"testing"

	"github.com/modeswitch/controller/internal/actions"
)

func splitCatalog() actions.Catalog {
	return actions.Select(false, false, true)
}

const validReply = `{"Group 1": "A: Increase x", "Group 2": "B: Decrease z", "Group 3": "C: Increase theta z", "Group 4": "A: Decrease y"}`

func TestValidateAcceptsCanonicalReply(t *testing.T) {
	v := NewValidator(splitCatalog())
	got, err := v.Validate(validReply)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got["Group 2"] != "B: Decrease z" {
		t.Fatalf("unexpected entry: %q", got["Group 2"])
	}
}

func TestValidateAcceptsFencedReply(t *testing.T) {
	v := NewValidator(splitCatalog())
	fenced := "Here is the answer:\n```json\n" + validReply + "\n```"
	if _, err := v.Validate(fenced); err != nil {
		t.Fatalf("fenced reply rejected: %v", err)
	}
}

func TestValidateAcceptsLowercaseGroupKeys(t *testing.T) {
	v := NewValidator(splitCatalog())
	reply := `{"group 1": "A: Increase x", "group 2": "B: Decrease z", "group 3": "C: Increase theta z", "group 4": "A: Decrease y"}`
	got, err := v.Validate(reply)
	if err != nil {
		t.Fatalf("lowercase keys rejected: %v", err)
	}
	if _, ok := got["Group 1"]; !ok {
		t.Fatal("entries should be rekeyed onto canonical group keys")
	}
}

func TestValidateRejectsMissingAndExtraKeys(t *testing.T) {
	v := NewValidator(splitCatalog())

	missing := `{"Group 1": "A: Increase x", "Group 2": "B: Decrease z", "Group 3": "C: Increase theta z"}`
	if _, err := v.Validate(missing); err == nil {
		t.Fatal("missing group accepted")
	}

	extra := `{"Group 1": "A: Increase x", "Group 2": "B: Decrease z", "Group 3": "C: Increase theta z", "Group 4": "A: Decrease y", "Group 5": "A: Decrease y"}`
	var sv *SchemaViolation
	if _, err := v.Validate(extra); !errors.As(err, &sv) {
		t.Fatalf("extra group should be a schema violation, got %v", err)
	}
}

func TestValidateRejectsLabelIndexMismatch(t *testing.T) {
	v := NewValidator(splitCatalog())
	reply := `{"Group 1": "B: Increase x", "Group 2": "B: Decrease z", "Group 3": "C: Increase theta z", "Group 4": "A: Decrease y"}`
	if _, err := v.Validate(reply); err == nil {
		t.Fatal("label addressing the wrong candidate accepted")
	}
}

func TestValidateRejectsUnknownAndMiscasedNames(t *testing.T) {
	v := NewValidator(splitCatalog())

	unknown := `{"Group 1": "A: Levitate", "Group 2": "B: Decrease z", "Group 3": "C: Increase theta z", "Group 4": "A: Decrease y"}`
	if _, err := v.Validate(unknown); err == nil {
		t.Fatal("unknown action name accepted")
	}

	// The name matches a candidate case-insensitively but the exact
	// spelling is required for label agreement.
	miscased := `{"Group 1": "A: increase x", "Group 2": "B: Decrease z", "Group 3": "C: Increase theta z", "Group 4": "A: Decrease y"}`
	if _, err := v.Validate(miscased); err == nil {
		t.Fatal("miscased action name accepted")
	}
}

func TestValidateNaturalCatalogOnlyChecksKeys(t *testing.T) {
	v := NewValidator(actions.Select(false, true, true))
	reply := `{"Group 1": "whatever", "Group 2": "the", "Group 3": "model", "Group 4": "said"}`
	if _, err := v.Validate(reply); err != nil {
		t.Fatalf("natural-language reply rejected: %v", err)
	}
}

func TestValidateRejectsNonJSON(t *testing.T) {
	v := NewValidator(splitCatalog())
	var sv *SchemaViolation
	if _, err := v.Validate("I think Group 1 should be A"); !errors.As(err, &sv) {
		t.Fatalf("prose reply should be a schema violation, got %v", err)
	}
}
