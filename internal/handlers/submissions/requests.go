package submissions

// SubmitRequest is the body of a graded submission
type SubmitRequest struct {
	SubmissionID string `json:"submission_id"`
	Language     string `json:"language"`
	Source       string `json:"source"`
}

// RunRequest is the body of an ungraded run against custom input
type RunRequest struct {
	Language string `json:"language"`
	Source   string `json:"source"`
	Stdin    string `json:"stdin"`
}
