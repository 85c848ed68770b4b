package gocrm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// successStatus is the discriminator the portal sends with a usable result.
const successStatus = "sucesso"

// registrationDateLayout is the portal's DD/MM/YYYY date format.
const registrationDateLayout = "02/01/2006"

var (
	// rqePattern matches "RQE Nº: 36584", "RQE N°36584", "rqe n 36584" and similar.
	rqePattern = regexp.MustCompile(`(?i)RQE\s*N[º°]?:?\s*(\d+)`)

	// specialtyPattern captures the specialty name without the leading '&' and the RQE suffix.
	specialtyPattern = regexp.MustCompile(`(?i)^&?(.+?)(?:\s*-\s*RQE.*)?$`)
)

var statusCodes = map[string]DoctorStatus{
	"A": StatusRegular,
	"I": StatusIrregular,
	"S": StatusSuspended,
	"C": StatusCanceled,
}

var registrationTypeCodes = map[string]RegistrationType{
	"P": RegistrationPrincipal,
	"S": RegistrationSecondary,
	"T": RegistrationTemporary,
}

// ParseResponse normalizes a raw portal response. It fails with ErrCodeUpstream
// when the status is not "sucesso", regardless of the rows sent alongside.
func ParseResponse(raw RawResponse) (*SearchResult, error) {
	if raw.Status != successStatus {
		err := newError(ErrCodeUpstream, "API returned error status: "+raw.Status, nil)
		err.Status = raw.Status
		return nil, err
	}

	doctors := make([]Doctor, 0, len(raw.Dados))
	for _, row := range raw.Dados {
		doctors = append(doctors, ParseDoctor(row))
	}

	return &SearchResult{
		Doctors: doctors,
		Total:   parseTotal(raw.Dados),
	}, nil
}

// parseTotal reads the match count the portal repeats on every row.
func parseTotal(rows []RawDoctor) int {
	if len(rows) == 0 {
		return 0
	}
	total, err := strconv.Atoi(strings.TrimSpace(rows[0].Count.String()))
	if err != nil {
		return len(rows)
	}
	return total
}

// ParseDoctor maps one raw row to a Doctor. It never fails: bad values fall back
// to the documented defaults.
func ParseDoctor(raw RawDoctor) Doctor {
	specialty := flexText(raw.Specialty)
	return Doctor{
		Name:                  raw.Name.String(),
		SocialName:            optionalText(flexText(raw.SocialName)),
		CRM:                   raw.CRM.String(),
		State:                 raw.State.String(),
		Status:                ParseStatus(raw.StatusCode.String()),
		RegistrationType:      ParseRegistrationType(raw.RegistrationTypeCode.String()),
		RegistrationDate:      ParseDate(raw.RegistrationDate.String()),
		Specialty:             CleanSpecialty(specialty),
		RQE:                   ExtractRQE(specialty),
		GraduationInstitution: optionalText(flexText(raw.GraduationInstitution)),
		GraduationYear:        ParseGraduationYear(flexText(raw.GraduationYear)),
	}
}

// ParseStatus maps a COD_SITUACAO code. Unknown codes are treated as irregular.
func ParseStatus(code string) DoctorStatus {
	if status, ok := statusCodes[code]; ok {
		return status
	}
	return StatusIrregular
}

// ParseRegistrationType maps an IN_TIPO_INSCRICAO code. Unknown codes are treated as principal.
func ParseRegistrationType(code string) RegistrationType {
	if t, ok := registrationTypeCodes[code]; ok {
		return t
	}
	return RegistrationPrincipal
}

// ParseDate parses a DD/MM/YYYY date. Malformed input yields the zero civil.Date,
// for which IsValid reports false.
func ParseDate(s string) civil.Date {
	t, err := time.Parse(registrationDateLayout, strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}
	}
	return civil.DateOf(t)
}

// CleanSpecialty turns "&PSIQUIATRIA - RQE Nº: 36584" into "Psiquiatria".
// Nil or blank input yields nil.
func CleanSpecialty(specialty *string) *string {
	if specialty == nil || *specialty == "" {
		return nil
	}

	match := specialtyPattern.FindStringSubmatch(*specialty)
	if match == nil {
		return nil
	}

	cleaned := strings.TrimSpace(match[1])
	if cleaned == "" {
		return nil
	}

	first, size := utf8.DecodeRuneInString(cleaned)
	// Casers keep state between calls, so each call gets its own.
	upper := cases.Upper(language.BrazilianPortuguese)
	lower := cases.Lower(language.BrazilianPortuguese)
	result := upper.String(string(first)) + lower.String(cleaned[size:])
	return &result
}

// ExtractRQE returns the digits of the RQE number in a raw specialty string, or nil.
func ExtractRQE(specialty *string) *string {
	if specialty == nil {
		return nil
	}
	match := rqePattern.FindStringSubmatch(*specialty)
	if match == nil {
		return nil
	}
	return &match[1]
}

// ParseGraduationYear parses DT_GRADUACAO. Nil, blank or non-numeric input yields nil.
func ParseGraduationYear(year *string) *int {
	if year == nil {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*year))
	if err != nil {
		return nil
	}
	return &n
}

// flexText unwraps a nullable column.
func flexText(f *FlexString) *string {
	if f == nil {
		return nil
	}
	s := f.String()
	return &s
}

// optionalText drops blank strings so optional fields are either set or nil.
func optionalText(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}
