package auth

import "strings"

// User is the authenticated caller as seen by the rest of the service:
// identity claims plus the authorization context derived from SMART scopes.
type User struct {
	ID          string
	Email       string
	Name        string
	FHIRUser    string
	Scopes      []string
	Role        Role
	PatientID   string
	EncounterID string
}

// NewUserFromClaims builds a User from validated JWT claims. The scope
// claim is the OAuth space-separated string; patient and encounter context
// come from a SMART launch sequence when present.
func NewUserFromClaims(c *Claims) *User {
	scopes := ParseScopeString(c.Scope)
	return &User{
		ID:          c.Subject,
		Email:       c.Email,
		Name:        c.Name,
		FHIRUser:    c.FHIRUser,
		Scopes:      scopes,
		Role:        DeriveRole(scopes),
		PatientID:   c.PatientID,
		EncounterID: c.EncounterID,
	}
}

// HasScope reports whether the user holds the required scope, with SMART
// wildcard semantics.
func (u *User) HasScope(required string) bool {
	return HasScope(u.Scopes, required)
}

// CanReadResource reports whether any of the user's scopes grants read
// access to the given resource type.
func (u *User) CanReadResource(resourceType string) bool {
	return CanReadResource(u.Scopes, resourceType)
}

// FilterContext is the per-request data-access restriction handed to the
// repository layer. FilterPatientID, when set, limits results to a single
// patient's records.
type FilterContext struct {
	Role            Role
	Scopes          []string
	PatientID       string
	EncounterID     string
	FilterPatientID string
}

// FilterContext derives the repository filter for this user. Patient-role
// callers with a launch patient context only ever see their own records;
// clinicians and system callers are unrestricted here.
func (u *User) FilterContext() *FilterContext {
	fc := &FilterContext{
		Role:        u.Role,
		Scopes:      u.Scopes,
		PatientID:   u.PatientID,
		EncounterID: u.EncounterID,
	}
	if u.Role == RolePatient && u.PatientID != "" {
		fc.FilterPatientID = u.PatientID
	}
	return fc
}

// Profile is the user representation returned to the frontend. Raw claims
// and write scopes are deliberately not included.
type Profile struct {
	UserID         string   `json:"user_id"`
	Email          string   `json:"email,omitempty"`
	Name           string   `json:"name,omitempty"`
	Role           Role     `json:"role"`
	Scopes         []string `json:"scopes"`
	FHIRUser       string   `json:"fhir_user,omitempty"`
	PatientContext bool     `json:"patient_context"`
}

// Profile builds the API-safe view of the user. Only read and FHIR-related
// scopes are echoed back.
func (u *User) Profile() Profile {
	visible := []string{}
	for _, s := range u.Scopes {
		if strings.Contains(s, "read") || strings.Contains(s, "fhir") {
			visible = append(visible, s)
		}
	}
	return Profile{
		UserID:         u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		Scopes:         visible,
		FHIRUser:       u.FHIRUser,
		PatientContext: u.PatientID != "",
	}
}
