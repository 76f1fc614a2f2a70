// Package auth supplies the verified caller identity for the query API:
// JWT bearer validation against the identity provider's JWKS, SMART on
// FHIR scope parsing with wildcard matching, and role derivation. The rest
// of the service only ever sees the resulting User value.
package auth

import (
	"fmt"
	"strings"
)

// Role is the coarse access category derived from a caller's scopes.
type Role string

const (
	RolePatient   Role = "patient"   // patient/... scopes only
	RoleClinician Role = "clinician" // user/... scopes
	RoleSystem    Role = "system"    // system/... scopes (backend services)
	RoleUnknown   Role = "unknown"
)

// Scope is a parsed resource-level SMART scope of the form
// <context>/<resourceType>.<operation>, e.g. patient/Condition.read or
// user/*.read.
type Scope struct {
	Context      string
	ResourceType string
	Operation    string
}

// fhirResources are the resource types this service exposes through search.
var fhirResources = []string{
	"Patient",
	"Condition",
	"Observation",
	"Encounter",
	"Procedure",
	"MedicationRequest",
}

// ParseScopeString splits an OAuth 2.0 space-separated scope string into
// individual scopes, dropping empty fragments.
func ParseScopeString(scopeString string) []string {
	if scopeString == "" {
		return nil
	}
	var scopes []string
	for _, s := range strings.Fields(scopeString) {
		scopes = append(scopes, s)
	}
	return scopes
}

// ParseScope parses a single resource-level SMART scope. Non-resource
// scopes such as "openid", "profile" or "launch/patient" return an error;
// callers are expected to skip them.
func ParseScope(scope string) (*Scope, error) {
	slash := strings.Index(scope, "/")
	if slash < 0 {
		return nil, fmt.Errorf("not a resource scope: %s", scope)
	}

	ctx := scope[:slash]
	rest := scope[slash+1:]

	if ctx != "patient" && ctx != "user" && ctx != "system" {
		return nil, fmt.Errorf("invalid scope context %q", ctx)
	}

	dot := strings.LastIndex(rest, ".")
	if dot < 0 {
		return nil, fmt.Errorf("invalid scope %q: missing operation", scope)
	}

	resourceType := rest[:dot]
	operation := rest[dot+1:]
	if resourceType == "" {
		return nil, fmt.Errorf("invalid scope %q: empty resource type", scope)
	}
	if operation != "read" && operation != "write" && operation != "*" {
		return nil, fmt.Errorf("invalid scope operation %q", operation)
	}

	return &Scope{Context: ctx, ResourceType: resourceType, Operation: operation}, nil
}

// parseResourceScopes parses all resource-level scopes from a scope list,
// silently skipping non-resource scopes.
func parseResourceScopes(scopes []string) []Scope {
	var out []Scope
	for _, s := range scopes {
		parsed, err := ParseScope(s)
		if err != nil {
			continue
		}
		out = append(out, *parsed)
	}
	return out
}

// DeriveRole maps a scope list to a role. System scopes are the most
// privileged and are checked first; a token carrying both user/ and
// patient/ scopes counts as a clinician.
func DeriveRole(scopes []string) Role {
	hasPrefix := func(prefix string) bool {
		for _, s := range scopes {
			if strings.HasPrefix(s, prefix) {
				return true
			}
		}
		return false
	}

	switch {
	case hasPrefix("system/"):
		return RoleSystem
	case hasPrefix("user/"):
		return RoleClinician
	case hasPrefix("patient/"):
		return RolePatient
	default:
		return RoleUnknown
	}
}

// HasScope reports whether the scope list grants the required scope,
// honoring SMART wildcards: patient/*.read covers patient/Condition.read,
// and user/*.* covers anything in the user context.
func HasScope(userScopes []string, required string) bool {
	req, err := ParseScope(required)
	if err != nil {
		// Non-resource scopes (openid, profile, ...) only match exactly.
		for _, s := range userScopes {
			if s == required {
				return true
			}
		}
		return false
	}

	for _, s := range parseResourceScopes(userScopes) {
		if s.Context != req.Context {
			continue
		}
		if s.ResourceType != "*" && s.ResourceType != req.ResourceType {
			continue
		}
		if s.Operation != "*" && s.Operation != req.Operation {
			continue
		}
		return true
	}
	return false
}

// CheckRequiredScopes reports whether every required scope is granted.
func CheckRequiredScopes(userScopes, required []string) bool {
	for _, r := range required {
		if !HasScope(userScopes, r) {
			return false
		}
	}
	return true
}

// CanReadResource reports whether any of the three SMART contexts grants
// read access to the given FHIR resource type.
func CanReadResource(userScopes []string, resourceType string) bool {
	for _, ctx := range []string{"patient", "user", "system"} {
		if HasScope(userScopes, fmt.Sprintf("%s/%s.read", ctx, resourceType)) {
			return true
		}
	}
	return false
}

// AccessibleResources lists, per SMART context, which of the service's
// resource types the scope list can read. Used by the permissions endpoint
// for troubleshooting.
func AccessibleResources(userScopes []string) map[string][]string {
	out := map[string][]string{
		"patient_context": {},
		"user_context":    {},
		"system_context":  {},
	}
	for _, rt := range fhirResources {
		if HasScope(userScopes, fmt.Sprintf("patient/%s.read", rt)) {
			out["patient_context"] = append(out["patient_context"], rt)
		}
		if HasScope(userScopes, fmt.Sprintf("user/%s.read", rt)) {
			out["user_context"] = append(out["user_context"], rt)
		}
		if HasScope(userScopes, fmt.Sprintf("system/%s.read", rt)) {
			out["system_context"] = append(out["system_context"], rt)
		}
	}
	return out
}

// MissingScopeMessage builds the error detail for a scope denial, naming
// the scopes the caller would need.
func MissingScopeMessage(missing []string) string {
	if len(missing) == 1 {
		return fmt.Sprintf("missing required scope: %s", missing[0])
	}
	return fmt.Sprintf("missing required scopes: %s", strings.Join(missing, ", "))
}
