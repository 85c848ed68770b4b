package gocrm

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// FlexString is a string that unmarshals from either a JSON string or a JSON number.
// The CFM portal returns counters and registration numbers as strings ("1") on most
// endpoints but has been seen sending bare numbers (1) for the same columns.
//
//	type Row struct {
//	    Count FlexString `json:"COUNT"`
//	}
//
//	// Works with both: {"COUNT": "42"} and {"COUNT": 42}
//
// JSON null decodes to the empty string.
type FlexString string

// UnmarshalJSON implements custom unmarshaling for string, number and null values.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}

	*f = FlexString(n.String())
	return nil
}

// String returns the underlying value.
func (f FlexString) String() string {
	return string(f)
}

// RawResponse is the envelope returned by the CFM search endpoint.
type RawResponse struct {
	Status string      `json:"status"`
	Dados  []RawDoctor `json:"dados"`
}

// RawDoctor is one row of the CFM search endpoint, as sent by the portal.
// COUNT is denormalized: every row carries the total number of matches.
// Every column is a FlexString so a number where a string was expected degrades
// that one field instead of failing the whole response.
type RawDoctor struct {
	Count                        FlexString  `json:"COUNT"`
	State                        FlexString  `json:"SG_UF"`
	CRM                          FlexString  `json:"NU_CRM"`
	CRMNatural                   FlexString  `json:"NU_CRM_NATURAL"`
	Name                         FlexString  `json:"NM_MEDICO"`
	StatusCode                   FlexString  `json:"COD_SITUACAO"`
	SocialName                   *FlexString `json:"NM_SOCIAL"`
	RegistrationDate             FlexString  `json:"DT_INSCRICAO"`
	RegistrationTypeCode         FlexString  `json:"IN_TIPO_INSCRICAO"`
	RegistrationTypeLabel        FlexString  `json:"TIPO_INSCRICAO"`
	StatusLabel                  FlexString  `json:"SITUACAO"`
	Specialty                    *FlexString `json:"ESPECIALIDADE"`
	FirstRegistrationInState     FlexString  `json:"PRIM_INSCRICAO_UF"`
	PeriodStart                  *FlexString `json:"PERIODO_I"`
	PeriodEnd                    *FlexString `json:"PERIODO_F"`
	InterdictionNotes            *FlexString `json:"OBS_INTERDICAO"`
	GraduationInstitution        *FlexString `json:"NM_INSTITUICAO_GRADUACAO"`
	GraduationYear               *FlexString `json:"DT_GRADUACAO"`
	EducationTypeID              FlexString  `json:"ID_TIPO_FORMACAO"`
	ForeignGraduationInstitution *FlexString `json:"NM_FACULDADE_ESTRANGEIRA_GRADUACAO"`
	HasPostGraduation            FlexString  `json:"HAS_POS_GRADUACAO"`
	RowNumber                    FlexString  `json:"RNUM"`
	SecurityHash                 FlexString  `json:"SECURITYHASH"`
}

// DoctorStatus is the normalized registration status of a doctor.
type DoctorStatus string

const (
	StatusRegular   DoctorStatus = "regular"
	StatusIrregular DoctorStatus = "irregular"
	StatusSuspended DoctorStatus = "suspended"
	StatusCanceled  DoctorStatus = "canceled"
)

// RegistrationType tells whether a CRM is the doctor's main registration or an
// additional one in another state.
type RegistrationType string

const (
	RegistrationPrincipal RegistrationType = "principal"
	RegistrationSecondary RegistrationType = "secondary"
	RegistrationTemporary RegistrationType = "temporary"
)

// Doctor is a normalized CFM record.
//
// Optional fields are nil when the portal has no value; they are never set to "".
// RegistrationDate is the zero civil.Date (IsValid reports false) when the portal
// sent a date that could not be parsed.
type Doctor struct {
	Name                  string           `json:"name" yaml:"name"`
	SocialName            *string          `json:"socialName" yaml:"socialName"`
	CRM                   string           `json:"crm" yaml:"crm"`
	State                 string           `json:"state" yaml:"state"`
	Status                DoctorStatus     `json:"status" yaml:"status"`
	RegistrationType      RegistrationType `json:"registrationType" yaml:"registrationType"`
	RegistrationDate      civil.Date       `json:"registrationDate" yaml:"registrationDate"`
	Specialty             *string          `json:"specialty" yaml:"specialty"`
	RQE                   *string          `json:"rqe" yaml:"rqe"`
	GraduationInstitution *string          `json:"graduationInstitution" yaml:"graduationInstitution"`
	GraduationYear        *int             `json:"graduationYear" yaml:"graduationYear"`
}

// SearchResult holds the doctors returned by one search.
// Total may exceed len(Doctors): the portal pages results and reports the full match count.
type SearchResult struct {
	Doctors []Doctor `json:"doctors" yaml:"doctors"`
	Total   int      `json:"total" yaml:"total"`
}

// SearchCriteria defines the filters for a doctor search.
//
// Example usage:
//
//	criteria := SearchCriteria{
//	    State: "RS",
//	    CRM:   String("43327"),
//	}
//	result, err := client.Search(ctx, criteria)
type SearchCriteria struct {
	// State is the two-letter UF of the issuing council (e.g. "SP", "RS").
	// Required. Case-insensitive; validation upper-cases it.
	State string

	// CRM is the registration number, digits only (e.g. "43327").
	// Nil means "any registration number".
	CRM *string

	// Name matches part of the doctor's name.
	// Nil means "any name"; a non-nil empty string is rejected.
	Name *string
}

// String returns a pointer to s, for filling the optional SearchCriteria fields.
func String(s string) *string {
	return &s
}

// ClientOption allows configuration of the Client.
type ClientOption func(*Client)

// RetryConfig defines the exponential backoff retry behavior for transient HTTP errors.
// Retries are off by default; set MaxRetries to enable them.
//
// Example usage:
//
//	client := NewClient(
//	    WithRetry(RetryConfig{
//	        MaxRetries:        3,
//	        InitialDelay:      100 * time.Millisecond,
//	        MaxDelay:          5 * time.Second,
//	        BackoffMultiplier: 2.0,
//	    }),
//	)
//
// Only server errors (5xx), rate limits (429) and network failures are retried.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	// 0 means no retries. Default: 0.
	MaxRetries int

	// InitialDelay is the delay before the first retry.
	// Default: 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 5 seconds.
	MaxDelay time.Duration

	// BackoffMultiplier is the factor by which the delay increases after each retry:
	//   Delay = InitialDelay * (BackoffMultiplier ^ retryNumber)
	// Default: 2.0.
	BackoffMultiplier float64
}
