package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending   JobStatus = "pending"   // accepted, waiting for a worker
	JobStatusAnalyzing JobStatus = "analyzing" // text extraction + heuristics
	JobStatusEnriching JobStatus = "enriching" // language-model pass over chunks
	JobStatusCompleted JobStatus = "completed" // terminal success
	JobStatusFailed    JobStatus = "failed"    // terminal failure
)

// IsTerminal reports whether no further transition is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CampaignStatus is the lifecycle of a verification campaign.
type CampaignStatus string

const (
	CampaignPlanned CampaignStatus = "planned"
	CampaignActive  CampaignStatus = "active"
	CampaignClosed  CampaignStatus = "closed"
)

// CanTransition allows planned -> active -> closed, and planned -> closed.
func (s CampaignStatus) CanTransition(to CampaignStatus) bool {
	switch s {
	case CampaignPlanned:
		return to == CampaignActive || to == CampaignClosed
	case CampaignActive:
		return to == CampaignClosed
	}
	return false
}

func ParseCampaignStatus(s string) (CampaignStatus, bool) {
	switch CampaignStatus(s) {
	case CampaignPlanned, CampaignActive, CampaignClosed:
		return CampaignStatus(s), true
	}
	return "", false
}
