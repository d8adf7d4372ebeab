package intake

// FormResponsePage models one page of the form-response endpoint.
type FormResponsePage struct {
	Code int `json:"code"`
	Data struct {
		Page     int            `json:"page"`
		PageSize int            `json:"pageSize"`
		Total    int            `json:"total"`
		Items    []FormResponse `json:"items"`
	} `json:"data"`
}

// FormResponse is one submitted booking form. Answers are keyed by question
// title as the form author wrote it.
type FormResponse struct {
	ID          string            `json:"id"`
	SubmittedAt string            `json:"submittedAt"`
	Answers     map[string]string `json:"answers"`
}
