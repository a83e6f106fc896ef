package domain

import "encoding/json"

// JobTypeIntegrationCheck is the queue job type for a single health probe.
const JobTypeIntegrationCheck = "integration_check"

// CheckJob is the payload of one enqueued health check.
type CheckJob struct {
	Type          IntegrationType `json:"type"`
	IntegrationID int64           `json:"integration_id"`
}

// Marshal encodes the job payload for the queue.
func (j CheckJob) Marshal() ([]byte, error) {
	return json.Marshal(j)
}

// UnmarshalCheckJob decodes a queue payload back into a CheckJob.
func UnmarshalCheckJob(data []byte) (CheckJob, error) {
	var j CheckJob
	err := json.Unmarshal(data, &j)
	return j, err
}

// VideoCredentials is the decrypted credential blob for video providers.
// Self-hosted providers use APIKey; OAuth providers use the token fields.
type VideoCredentials struct {
	APIKey       string `json:"api_key,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// CalendarCredentials is the decrypted credential blob for calendar providers.
type CalendarCredentials struct {
	Password    string `json:"password,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}
