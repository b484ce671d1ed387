package entities

import "time"

// Patient holds the masked contact details staff may see. Transcripts link to
// a patient through the pseudonym.
type Patient struct {
	ID               string  `json:"id" db:"id"`
	Pseudonym        string  `json:"pseudonym" db:"pseudonym"`
	MaskedName       *string `json:"masked_name" db:"masked_name"`
	ProfileImageURL  *string `json:"patient_profile_image_url" db:"patient_profile_image_url"`
	EmailMasked      *string `json:"email_masked" db:"email_masked"`
	EmailVerified    bool    `json:"email_verified" db:"email_verified"`
	PhoneMasked      *string `json:"phone_masked" db:"phone_masked"`
	PhoneVerified    bool    `json:"phone_verified" db:"phone_verified"`
	PreferredChannel *string `json:"preferred_channel" db:"preferred_channel"`
	ConsentStatus    *string `json:"consent_status" db:"consent_status"`
}

// DisplayName is the masked name, or the pseudonym when none is on file
func (p *Patient) DisplayName() string {
	if p.MaskedName != nil && *p.MaskedName != "" {
		return *p.MaskedName
	}
	return p.Pseudonym
}

// PatientSummary is the profile card shown to staff
type PatientSummary struct {
	ID               string  `json:"id"`
	Pseudonym        string  `json:"pseudonym"`
	DisplayName      string  `json:"display_name"`
	ProfileImageURL  *string `json:"patient_profile_image_url"`
	EmailMasked      *string `json:"email_masked"`
	EmailVerified    bool    `json:"email_verified"`
	PhoneMasked      *string `json:"phone_masked"`
	PhoneVerified    bool    `json:"phone_verified"`
	PreferredChannel *string `json:"preferred_channel"`
	ConsentStatus    *string `json:"consent_status"`
}

// LatestInteraction is the newest transcript and the status of its lead, if any
type LatestInteraction struct {
	TranscriptID        string      `json:"transcript_id"`
	TranscriptCreatedAt time.Time   `json:"transcript_created_at"`
	LeadID              *string     `json:"lead_id"`
	LeadStatus          *LeadStatus `json:"lead_status"`
}

// RecentActivityCounts counts the patient's recent transcripts and leads
type RecentActivityCounts struct {
	TranscriptCount int `json:"transcript_count"`
	LeadCount       int `json:"lead_count"`
}

// PatientProfile is the patient view returned to staff
type PatientProfile struct {
	Patient           PatientSummary       `json:"patient"`
	LatestInteraction *LatestInteraction   `json:"latest_interaction"`
	Recent            RecentActivityCounts `json:"recent"`
}
