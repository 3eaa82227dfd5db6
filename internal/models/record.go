package models

import (
	"time"

	"github.com/google/uuid"
)

// ProvisioningStatus is the outcome of a lifecycle event
type ProvisioningStatus string

const (
	// ProvisioningStatusSucceeded indicates SUCCESS was reported to CloudFormation
	ProvisioningStatusSucceeded ProvisioningStatus = "succeeded"
	// ProvisioningStatusFailed indicates FAILED was reported to CloudFormation
	ProvisioningStatusFailed ProvisioningStatus = "failed"
)

// IsValid checks if the provisioning status value is valid
func (s ProvisioningStatus) IsValid() bool {
	switch s {
	case ProvisioningStatusSucceeded, ProvisioningStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the provisioning status
func (s ProvisioningStatus) String() string {
	return string(s)
}

// ProvisioningRecord is a ledger entry describing one handled lifecycle event
type ProvisioningRecord struct {
	// ID is the unique identifier for the record
	ID string `json:"id" dynamodbav:"id"`

	// StackID is the CloudFormation stack the event belongs to
	StackID string `json:"stack_id" dynamodbav:"stack_id"`

	// LogicalResourceID is the template logical id of the custom resource
	LogicalResourceID string `json:"logical_resource_id" dynamodbav:"logical_resource_id"`

	// RequestID is the CloudFormation request id
	RequestID string `json:"request_id" dynamodbav:"request_id"`

	// RequestType is Create, Update or Delete
	RequestType string `json:"request_type" dynamodbav:"request_type"`

	// Stage is the environment of the provisioner that handled the event
	Stage Stage `json:"stage" dynamodbav:"stage"`

	// BotName is the prefixed bot name
	BotName string `json:"bot_name" dynamodbav:"bot_name"`

	// BotVersion is the published version, empty for deletes and failures
	BotVersion string `json:"bot_version,omitempty" dynamodbav:"bot_version,omitempty"`

	// Status is the reported outcome
	Status ProvisioningStatus `json:"status" dynamodbav:"status"`

	// Reason carries the failure text
	Reason string `json:"reason,omitempty" dynamodbav:"reason,omitempty"`

	// CreatedDate is when the event finished
	CreatedDate time.Time `json:"created_date" dynamodbav:"created_date"`
}

// NewProvisioningRecord creates a record for an event that is about to be reported
func NewProvisioningRecord(stackID, logicalResourceID, requestID, requestType string, stage Stage, botName string) *ProvisioningRecord {
	return &ProvisioningRecord{
		ID:                uuid.New().String(),
		StackID:           stackID,
		LogicalResourceID: logicalResourceID,
		RequestID:         requestID,
		RequestType:       requestType,
		Stage:             stage,
		BotName:           botName,
		CreatedDate:       time.Now().UTC(),
	}
}

// MarkSucceeded records a successful outcome
func (r *ProvisioningRecord) MarkSucceeded(botVersion string) {
	r.Status = ProvisioningStatusSucceeded
	r.BotVersion = botVersion
	r.Reason = ""
}

// MarkFailed records a failed outcome
func (r *ProvisioningRecord) MarkFailed(reason string) {
	r.Status = ProvisioningStatusFailed
	r.Reason = reason
}
