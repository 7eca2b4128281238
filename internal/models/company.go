package models

// CompanyInput is the body of the company create and update calls.
type CompanyInput struct {
	License                  `yaml:",inline"`
	RegisteredAgentFirstName string `json:"registeredAgentFirstName" yaml:"registeredAgentFirstName"`
	RegisteredAgentLastName  string `json:"registeredAgentLastName" yaml:"registeredAgentLastName"`
}

type Company struct {
	ID           int64 `json:"id" yaml:"id"`
	CompanyInput `yaml:",inline"`
	Status       RecordStatus `json:"status" yaml:"status"`
}
