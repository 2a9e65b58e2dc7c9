package model

import "time"

// Audit is one persisted submission: the analyzed source, the raw AI findings
// and the patch extracted from them.
//
// PatchedCode is a pointer because "the model produced no patch" and "the
// patch is identical to the input" are different answers. nil means no fenced
// Solidity block was found in AuditResult.
//
// Audits are immutable once created; there is no UpdatedAt.
type Audit struct {
	ID           string    `json:"id"                  db:"id"`
	UserID       string    `json:"userId"              db:"user_id"`
	ContractName string    `json:"contractName"        db:"contract_name"`
	SolidityCode string    `json:"solidityCode"        db:"solidity_code"`
	GitHubURL    string    `json:"githubUrl,omitempty" db:"github_url"`
	AuditResult  string    `json:"auditResult"         db:"audit_result"`
	PatchedCode  *string   `json:"patchedCode"         db:"patched_code"`
	CreatedAt    time.Time `json:"createdAt"           db:"created_at"`
}

// HasPatch reports whether the analysis produced a patched contract.
func (a *Audit) HasPatch() bool {
	return a.PatchedCode != nil
}
