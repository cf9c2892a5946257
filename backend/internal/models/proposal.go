package models

import "time"

// ProposalStatus is the review state of a change proposal or batch
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
	ProposalApplied  ProposalStatus = "applied"
)

// Valid reports whether s is a known status
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalPending, ProposalApproved, ProposalRejected, ProposalApplied:
		return true
	}
	return false
}

// ProposalType is the kind of change proposed
type ProposalType string

const (
	ProposalCreate ProposalType = "create"
	ProposalUpdate ProposalType = "update"
	ProposalDelete ProposalType = "delete"
)

// Valid reports whether t is a known proposal type
func (t ProposalType) Valid() bool {
	switch t {
	case ProposalCreate, ProposalUpdate, ProposalDelete:
		return true
	}
	return false
}

// ChangeProposal is a suggested change to a campaign entity awaiting review
type ChangeProposal struct {
	ID                string         `json:"proposal_id"`
	Status            ProposalStatus `json:"status"`
	ProposalType      ProposalType   `json:"type"`
	EntityType        string         `json:"entity_type"`
	EntityID          *string        `json:"entity_id,omitempty"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	Reason            string         `json:"reason,omitempty"`
	ProposedChanges   map[string]any `json:"proposed_changes,omitempty"`
	ContextCampaignID *string        `json:"context_campaign_id,omitempty"`
	ContextSessionID  *string        `json:"context_session_id,omitempty"`
	BatchID           *string        `json:"batch_id,omitempty"`
	ReviewedBy        string         `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time     `json:"reviewed_at,omitempty"`
	CommentCount      int64          `json:"comment_count"`
	Audit
}

type CreateChangeProposalParams struct {
	ProposalType      ProposalType   `json:"type"`
	EntityType        string         `json:"entity_type"`
	EntityID          *string        `json:"entity_id,omitempty"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	Reason            string         `json:"reason,omitempty"`
	ProposedChanges   map[string]any `json:"proposed_changes,omitempty"`
	ContextCampaignID *string        `json:"context_campaign_id,omitempty"`
	ContextSessionID  *string        `json:"context_session_id,omitempty"`
}

type UpdateChangeProposalParams struct {
	Title             Nullable[string]         `json:"title"`
	Description       Nullable[string]         `json:"description"`
	Reason            Nullable[string]         `json:"reason"`
	ProposedChanges   Nullable[map[string]any] `json:"proposed_changes"`
	ContextCampaignID Nullable[string]         `json:"context_campaign_id"`
	ContextSessionID  Nullable[string]         `json:"context_session_id"`
}

// ProposalComment is a reviewer note on a proposal
type ProposalComment struct {
	ID         string    `json:"comment_id"`
	ProposalID string    `json:"proposal_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by,omitempty"`
}

// ProposalBatch groups proposals reviewed together
type ProposalBatch struct {
	ID          string         `json:"batch_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      ProposalStatus `json:"status"`
	ProposalIDs []string       `json:"proposal_ids"`
	Audit
}

type CreateProposalBatchParams struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ProposalIDs []string `json:"proposal_ids,omitempty"`
}
