package models

import (
	"fmt"
	"strings"
)

// RecordStatus is the approval state of an agency or company.
type RecordStatus string

const (
	RecordPending  RecordStatus = "pending"
	RecordActive   RecordStatus = "active"
	RecordInactive RecordStatus = "inactive"
	RecordRejected RecordStatus = "rejected"
)

// Decision is the outcome of an approval review.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Validate() error {
	switch d {
	case DecisionApproved, DecisionRejected:
		return nil
	default:
		return fmt.Errorf("unknown decision %q (must be one of approved, rejected)", string(d))
	}
}

// RecordStatus maps the decision to the status a record ends up in.
func (d Decision) RecordStatus() RecordStatus {
	if d == DecisionApproved {
		return RecordActive
	}
	return RecordRejected
}

// License holds the licensing and contact fields shared by agencies and companies.
type License struct {
	LicenseNumber         string `json:"licenseNumber" yaml:"licenseNumber"`
	LicenseType           string `json:"licenseType" yaml:"licenseType"`
	LicenseExpirationDate string `json:"licenseExpirationDate" yaml:"licenseExpirationDate"`
	Address               string `json:"address" yaml:"address"`
	City                  string `json:"city" yaml:"city"`
	State                 string `json:"state" yaml:"state"`
	Country               string `json:"country" yaml:"country"`
	Zip                   string `json:"zip" yaml:"zip"`
	CompanyName           string `json:"companyName" yaml:"companyName"`
	PhoneNumber           string `json:"phoneNumber" yaml:"phoneNumber"`
	EmailAddress          string `json:"emailAddress" yaml:"emailAddress"`
}

// AgencyInput is the body of the agency create and update calls.
type AgencyInput struct {
	License             `yaml:",inline"`
	RegisteredAgentName string `json:"registeredAgentName" yaml:"registeredAgentName"`
}

type Agency struct {
	ID          int64 `json:"id" yaml:"id"`
	AgencyInput `yaml:",inline"`
	Status      RecordStatus `json:"status" yaml:"status"`
}

// StatusChange is the body of a status change call.
type StatusChange struct {
	Status           Decision `json:"status"`
	Notify           bool     `json:"notify"`
	RejectionReasons string   `json:"rejectionReasons"`
}

// NewStatusChange joins the selected rejection reasons and the free text reasons with ", ".
func NewStatusChange(decision Decision, notify bool, reasons []string, otherReasons string) StatusChange {
	return StatusChange{
		Status:           decision,
		Notify:           notify,
		RejectionReasons: strings.Join(reasons, ", ") + ", " + otherReasons,
	}
}

// PasswordReset is the body of the company password reset call.
type PasswordReset struct {
	NewPassword string `json:"newPassword"`
}
