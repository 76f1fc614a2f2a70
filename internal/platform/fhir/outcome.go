package fhir

// OperationOutcome severity levels per FHIR R4.
const (
	IssueSeverityFatal       = "fatal"
	IssueSeverityError       = "error"
	IssueSeverityWarning     = "warning"
	IssueSeverityInformation = "information"
)

// OperationOutcome issue type codes used by this service.
const (
	IssueTypeInvalid      = "invalid"
	IssueTypeProcessing   = "processing"
	IssueTypeSecurity     = "security"
	IssueTypeForbidden    = "forbidden"
	IssueTypeLogin        = "login"
	IssueTypeNotFound     = "not-found"
	IssueTypeException    = "exception"
	IssueTypeTimeout      = "timeout"
	IssueTypeNotSupported = "not-supported"
)

// OperationOutcome is the FHIR resource carrying error and warning details.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// NewOperationOutcome creates an OperationOutcome with a single issue.
func NewOperationOutcome(severity, code, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{{
			Severity:    severity,
			Code:        code,
			Diagnostics: diagnostics,
		}},
	}
}

// ErrorOutcome creates an error-severity outcome for a processing failure.
func ErrorOutcome(message string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeProcessing, message)
}

// ForbiddenOutcome creates a 403-style outcome for a scope denial.
func ForbiddenOutcome(message string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeForbidden, message)
}

// UnavailableOutcome creates a 502-style outcome for an upstream data
// source failure.
func UnavailableOutcome(message string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityError, IssueTypeException, message)
}
