package gocrm

import (
	"encoding/json"
)

const (
	// DefaultPage is the page requested from the portal. Only the first page is fetched.
	DefaultPage = 1

	// DefaultPageSize is the number of rows requested per search.
	DefaultPageSize = 100
)

// searchRequest is one element of the JSON array the portal expects.
type searchRequest struct {
	Doctor     doctorFilter `json:"medico"`
	Page       int          `json:"page"`
	PageNumber int          `json:"pageNumber"`
	PageSize   int          `json:"pageSize"`
}

// doctorFilter mirrors the portal's search form. The portal rejects requests that
// omit the unused filters, so they are always sent empty.
type doctorFilter struct {
	Name             string `json:"nome"`
	State            string `json:"ufMedico"`
	CRM              string `json:"crmMedico"`
	City             string `json:"municipioMedico"`
	RegistrationType string `json:"tipoInscricaoMedico"`
	Status           string `json:"situacaoMedico"`
	StatusDetail     string `json:"detalheSituacaoMedico"`
	Specialty        string `json:"especialidadeMedico"`
	PracticeArea     string `json:"areaAtuacaoMedico"`
}

// BuildPayload serializes validated criteria into the request body of the search
// endpoint. Absent name and CRM are sent as empty strings.
func BuildPayload(criteria SearchCriteria) ([]byte, error) {
	filter := doctorFilter{State: criteria.State}
	if criteria.Name != nil {
		filter.Name = *criteria.Name
	}
	if criteria.CRM != nil {
		filter.CRM = *criteria.CRM
	}

	payload := []searchRequest{{
		Doctor:     filter,
		Page:       DefaultPage,
		PageNumber: DefaultPage,
		PageSize:   DefaultPageSize,
	}}

	return json.Marshal(payload)
}
